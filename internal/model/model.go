package model

// CongestionRow is one row destined for the congestion table
type CongestionRow struct {
	Id               int64
	OfferDate        string
	OfferDay         *int64
	OfferHour        *int64
	EventNo          string
	CongestionDegree *float64
	CongestionLength *float64
}

// RoadRow is one row destined for the road table
type RoadRow struct {
	Id              int64
	PrefNo          *int32
	CourseNo        *int32
	CourseName      string
	DirName         string
	LowKp           *float64
	LowLatitude     *float64
	LowLongitude    *float64
	LowAltitude     *float64
	LowSpotName     string
	LowCitynameCode string
	UpKp            *float64
	UpLatitude      *float64
	UpLongitude     *float64
	UpAltitude      *float64
	UpSpotName      string
	UpCitynameCode  string
}

// RegulationRow is one row destined for the regulation table. Time carries the
// source's offer_date column.
type RegulationRow struct {
	Id           int64
	Time         string
	EventNo      string
	EventSeq     *float64
	Regulation   string
	LinkDistance *float64
	Reason       string
}

// CongestionHourRow is one row destined for the congestion_1hour table
type CongestionHourRow struct {
	Id               int64
	Time             string
	AllCount         *float64
	LightCongestion  *float64
	HeavyCongestion  *float64
	AverageLength    *float64
	MaxLength        *float64
	CongestionTime   *float64
	CongestionAmount *float64
	LinkLength       *float64
}

// RoadHourRow is one row destined for the road_1hour table
type RoadHourRow struct {
	Id          int64
	RoadName    string
	Direction   string
	DwLocation  string
	DwLatitude  *float64
	DwLongitude *float64
	UpLocation  string
	UpLatitude  *float64
	UpLongitude *float64
}

// RecordSet represents the typed rows produced from one chunk of a source
// file. Each slice preserves source row order; only the slices belonging to
// the chunk's shape are populated.
type RecordSet struct {
	Congestion     []*CongestionRow
	Road           []*RoadRow
	Regulation     []*RegulationRow
	CongestionHour []*CongestionHourRow
	RoadHour       []*RoadHourRow
}
