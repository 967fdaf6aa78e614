package query

type RefreshTrain struct {
	TrainNumber string
}

type CacheStatus struct {
	TrainNumber string
}

type CacheStats struct {
	Reset bool
}
