package shared

// UserMetadata is the resolved identity behind an API key. Only admin users
// may read the prediction history endpoints.
type UserMetadata struct {
	UserID uint64 `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	APIKey string `json:"-"`
}

// TrainingStatus mirrors the status payload of the training deployment. The
// service ships a statically trained artifact, so these values are fixed at
// deploy time rather than computed.
type TrainingStatus struct {
	Round             int     `json:"round"`
	GlobalAccuracy    float64 `json:"global_accuracy"`
	ConnectedClients  int     `json:"connected_clients"`
	TotalRounds       int     `json:"total_rounds"`
	LastUpdate        string  `json:"last_update"`
	CloudMode         bool    `json:"cloud_mode"`
	FederatedLearning bool    `json:"federated_learning"`
	ModelStatus       string  `json:"model_status"`
}

type ClientMetric struct {
	Client   string  `json:"client"`
	Accuracy float64 `json:"accuracy"`
}

type TrainingRound struct {
	Round    int            `json:"round"`
	Accuracy float64        `json:"accuracy"`
	Clients  []ClientMetric `json:"clients"`
}
