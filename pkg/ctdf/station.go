package ctdf

type StationNames struct {
	Long   string `json:"lang,omitempty"`
	Medium string `json:"middel,omitempty"`
	Short  string `json:"kort,omitempty"`
}

type Station struct {
	Code        string       `json:"code"`
	Names       StationNames `json:"namen"`
	UICCode     string       `json:"UICCode,omitempty"`
	Country     string       `json:"land,omitempty"`
	StationType string       `json:"stationType,omitempty"`
	Lat         *float64     `json:"lat,omitempty"`
	Lng         *float64     `json:"lng,omitempty"`
}
