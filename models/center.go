package models

type Center struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	County       string   `json:"county"`
	Constituency string   `json:"constituency,omitempty"`
	Ward         string   `json:"ward,omitempty"`
	Location     string   `json:"location,omitempty"`
	Address      string   `json:"address,omitempty"`
	Description  string   `json:"description,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

type CenterFilter struct {
	County string
	Search string
	Page   int
}
