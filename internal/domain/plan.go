package domain

// Plan describes a subscription tier. -1 means unlimited.
type Plan struct {
	Name            string `json:"name"`
	Price           string `json:"price"`
	Indicators      string `json:"indicators"`
	AIAnalyses      int    `json:"aiAnalyses"`
	Charts          bool   `json:"charts"`
	Pairs           int    `json:"pairs"`
	Signals         int    `json:"signals"`
	RefreshRate     int    `json:"refreshRate"`
	Alerts          bool   `json:"alerts,omitempty"`
	WhyButton       bool   `json:"whyButton,omitempty"`
	Whale           bool   `json:"whale,omitempty"`
	AI              bool   `json:"ai,omitempty"`
	RealtimeAI      bool   `json:"realtimeAI,omitempty"`
	PrioritySupport bool   `json:"prioritySupport,omitempty"`
}

// PlanSettingPrefix is the settings key prefix plans are stored under
const PlanSettingPrefix = "plan_"

// DefaultPlans are seeded into settings on startup
var DefaultPlans = []Plan{
	{Name: "Free", Price: "бесплатно", Indicators: "3", AIAnalyses: 5, Charts: true, Pairs: 3, Signals: 5, RefreshRate: 30},
	{Name: "Pro", Price: "$29/мес", Indicators: "все", AIAnalyses: 50, Charts: true, Pairs: 10, Signals: 50, RefreshRate: 10, Alerts: true, WhyButton: true, Whale: true},
	{Name: "Premium", Price: "$99/мес", Indicators: "все", AIAnalyses: -1, Charts: true, Pairs: 10, Signals: -1, RefreshRate: 5, Alerts: true, Whale: true, AI: true, RealtimeAI: true, PrioritySupport: true},
}
