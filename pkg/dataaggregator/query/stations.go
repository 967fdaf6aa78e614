package query

type Stations struct {
	StationCode string
}
