// Package mapper converts chunks of raw delimited rows into the typed record
// sets the storage backends consume. Converters are stateless; row i of a
// chunk maps to row i of every derived slice.
package mapper

import (
	"context"
	"strconv"
	"strings"

	"github.com/trafficlab/roadbench/internal/chunk"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
	"github.com/trafficlab/roadbench/internal/model"
)

// FiveMinute converts the tab delimited five minute shape into congestion,
// road and regulation rows. The shape's unnamed leading index column supplies
// the id.
type FiveMinute struct{}

func (FiveMinute) Convert(ctx context.Context, c *chunk.Chunk) (*model.RecordSet, error) {
	cols := indexColumns(c.Columns)
	set := &model.RecordSet{
		Congestion: make([]*model.CongestionRow, 0, len(c.Rows)),
		Road:       make([]*model.RoadRow, 0, len(c.Rows)),
		Regulation: make([]*model.RegulationRow, 0, len(c.Rows)),
	}
	for i, row := range c.Rows {
		p := &rowParser{cols: cols, row: row, line: c.FirstLine + i}
		id := p.requiredId()

		set.Congestion = append(set.Congestion, &model.CongestionRow{
			Id:               id,
			OfferDate:        p.str("offer_date"),
			OfferDay:         p.int64p("offer_day"),
			OfferHour:        p.int64p("offer_hour"),
			EventNo:          p.str("event_no"),
			CongestionDegree: p.float64p("congestion_degree"),
			CongestionLength: p.float64p("congestion_length"),
		})

		set.Road = append(set.Road, &model.RoadRow{
			Id:              id,
			PrefNo:          p.int32p("pref_no"),
			CourseNo:        p.int32p("course_no"),
			CourseName:      p.str("course_name"),
			DirName:         p.str("dir_name"),
			LowKp:           p.float64p("low_kp"),
			LowLatitude:     p.float64p("low_latitude"),
			LowLongitude:    p.float64p("low_longitude"),
			LowAltitude:     p.float64p("low_altitude"),
			LowSpotName:     p.str("low_spot_name"),
			LowCitynameCode: p.str("low_cityname_code"),
			UpKp:            p.float64p("up_kp"),
			UpLatitude:      p.float64p("up_latitude"),
			UpLongitude:     p.float64p("up_longitude"),
			UpAltitude:      p.float64p("up_altitude"),
			UpSpotName:      p.str("up_spot_name"),
			UpCitynameCode:  p.str("up_cityname_code"),
		})

		set.Regulation = append(set.Regulation, &model.RegulationRow{
			Id:           id,
			Time:         p.str("offer_date"),
			EventNo:      p.str("event_no"),
			EventSeq:     p.float64p("event_seq"),
			Regulation:   p.str("regulation"),
			LinkDistance: p.float64p("link_distance"),
			Reason:       p.str("reason"),
		})

		if p.err != nil {
			return nil, p.err
		}
	}
	return set, nil
}

// Hourly converts the comma delimited hourly shape into congestion_1hour and
// road_1hour rows. When the source has no id column, ids are synthesized as
// the 1-based row position within the chunk; columns absent from the source
// are filled with nulls.
type Hourly struct{}

func (Hourly) Convert(ctx context.Context, c *chunk.Chunk) (*model.RecordSet, error) {
	cols := indexColumns(c.Columns)
	_, hasId := cols["id"]
	set := &model.RecordSet{
		CongestionHour: make([]*model.CongestionHourRow, 0, len(c.Rows)),
		RoadHour:       make([]*model.RoadHourRow, 0, len(c.Rows)),
	}
	for i, row := range c.Rows {
		p := &rowParser{cols: cols, row: row, line: c.FirstLine + i}
		var id int64
		if hasId {
			id = p.requiredId()
		} else {
			id = int64(i) + 1
		}

		set.CongestionHour = append(set.CongestionHour, &model.CongestionHourRow{
			Id:               id,
			Time:             p.str("time"),
			AllCount:         p.float64p("allCount"),
			LightCongestion:  p.float64p("lightCongestion"),
			HeavyCongestion:  p.float64p("heavyCongestion"),
			AverageLength:    p.float64p("averageLength"),
			MaxLength:        p.float64p("maxLength"),
			CongestionTime:   p.float64p("congestionTime"),
			CongestionAmount: p.float64p("congestionAmount"),
			LinkLength:       p.float64p("linkLength"),
		})

		set.RoadHour = append(set.RoadHour, &model.RoadHourRow{
			Id:          id,
			RoadName:    p.str("roadName"),
			Direction:   p.str("direction"),
			DwLocation:  p.str("dwLocation"),
			DwLatitude:  p.float64p("dwLatitude"),
			DwLongitude: p.float64p("dwLongitude"),
			UpLocation:  p.str("upLocation"),
			UpLatitude:  p.float64p("upLatitude"),
			UpLongitude: p.float64p("upLongitude"),
		})

		if p.err != nil {
			return nil, p.err
		}
	}
	return set, nil
}

// columns maps a header name to its position. The unnamed leading index
// column of the five minute shape registers as "id".
type columns map[string]int

func indexColumns(header []string) columns {
	m := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "id"
		}
		m[name] = i
	}
	return m
}

// rowParser extracts typed cells from one row, holding on to the first parse
// error so that struct literals can stay flat.
type rowParser struct {
	cols columns
	row  []string
	line int
	err  error
}

func (p *rowParser) requiredId() int64 {
	i, ok := p.cols["id"]
	if !ok {
		p.setErr("id", "")
		return 0
	}
	v := strings.TrimSpace(p.row[i])
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.setErr("id", p.row[i])
		return 0
	}
	return id
}

func (p *rowParser) str(name string) string {
	if i, ok := p.cols[name]; ok {
		return p.row[i]
	}
	return ""
}

func (p *rowParser) float64p(name string) *float64 {
	i, ok := p.cols[name]
	if !ok {
		return nil
	}
	v := strings.TrimSpace(p.row[i])
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.setErr(name, p.row[i])
		return nil
	}
	return &f
}

func (p *rowParser) int64p(name string) *int64 {
	i, ok := p.cols[name]
	if !ok {
		return nil
	}
	v := strings.TrimSpace(p.row[i])
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		p.setErr(name, p.row[i])
		return nil
	}
	return &n
}

func (p *rowParser) int32p(name string) *int32 {
	i, ok := p.cols[name]
	if !ok {
		return nil
	}
	v := strings.TrimSpace(p.row[i])
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		p.setErr(name, p.row[i])
		return nil
	}
	n32 := int32(n)
	return &n32
}

func (p *rowParser) setErr(column string, value string) {
	if p.err == nil {
		p.err = &roaderrors.ErrBadCell{Line: p.line, Column: column, Value: value}
	}
}
