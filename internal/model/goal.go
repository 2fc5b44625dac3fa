package model

// RescueGoal is the closed set of rescue objectives a response agent can
// pursue.
type RescueGoal string

const (
	AssessSituation       RescueGoal = "ASSESS_SITUATION"
	DeployResources       RescueGoal = "DEPLOY_RESOURCES"
	EvacuateCivilians     RescueGoal = "EVACUATE_CIVILIANS"
	ProvideMedicalAid     RescueGoal = "PROVIDE_MEDICAL_AID"
	RestoreInfrastructure RescueGoal = "RESTORE_INFRASTRUCTURE"
	MonitorRecovery       RescueGoal = "MONITOR_RECOVERY"
)

// Objective returns the display text for the goal type.
func (g RescueGoal) Objective() string {
	switch g {
	case AssessSituation:
		return "Assess disaster situation"
	case DeployResources:
		return "Deploy rescue resources"
	case EvacuateCivilians:
		return "Evacuate affected civilians"
	case ProvideMedicalAid:
		return "Provide medical assistance"
	case RestoreInfrastructure:
		return "Restore critical infrastructure"
	case MonitorRecovery:
		return "Monitor recovery progress"
	default:
		return string(g)
	}
}

// GoalStatus tracks a goal's lifecycle. The only legal path is
// pending -> active -> completed or failed.
type GoalStatus string

const (
	GoalPending   GoalStatus = "pending"
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalFailed    GoalStatus = "failed"
)

// Goal is one rescue objective owned by the response agent that created it.
type Goal struct {
	GoalID      string     `json:"goal_id"`
	Type        RescueGoal `json:"goal_type"`
	Priority    int        `json:"priority"` // 1-5, 5 highest
	Status      GoalStatus `json:"status"`
	CreatedAt   string     `json:"created_at"`
	CompletedAt string     `json:"completed_at,omitempty"`
}
