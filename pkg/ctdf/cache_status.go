package ctdf

type CacheRefresh struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	ClearedKeys []string `json:"clearedKeys,omitempty"`
}

type CacheStatus struct {
	TrainNumber   string `json:"trainNumber"`
	HasFreshCache bool   `json:"hasFreshCache"`
}
