package query

type JourneyDetails struct {
	TrainNumber string
}
