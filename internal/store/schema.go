package store

import "fmt"

// columnDefs holds each target's column layout without constraints. Staging
// tables use a layout verbatim; destination tables add the primary key. The
// layouts are the original datasets' published shapes and are shared by the
// relational DDL, the copy column lists and the document field order.
var columnDefs = map[string]string{
	TableCongestion: `
		id                bigint,
		offer_date        varchar,
		offer_day         bigint,
		offer_hour        bigint,
		event_no          varchar,
		congestion_degree double precision,
		congestion_length double precision`,
	TableRoad: `
		id                bigint,
		pref_no           int,
		course_no         int,
		course_name       varchar,
		dir_name          varchar,
		low_kp            double precision,
		low_latitude      double precision,
		low_longitude     double precision,
		low_altitude      double precision,
		low_spot_name     varchar,
		low_cityname_code varchar,
		up_kp             double precision,
		up_latitude       double precision,
		up_longitude      double precision,
		up_altitude       double precision,
		up_spot_name      varchar,
		up_cityname_code  varchar`,
	TableRegulation: `
		id            bigint,
		time          varchar,
		event_no      varchar,
		event_seq     numeric,
		regulation    varchar,
		link_distance numeric,
		reason        varchar`,
	TableCongestionHour: `
		id               bigint,
		time             varchar,
		allcount         numeric,
		lightcongestion  numeric,
		heavycongestion  numeric,
		averagelength    numeric,
		maxlength        numeric,
		congestiontime   numeric,
		congestionamount numeric,
		linklength       numeric`,
	TableRoadHour: `
		id          bigint,
		roadname    varchar,
		direction   varchar,
		dwlocation  varchar,
		dwlatitude  double precision,
		dwlongitude double precision,
		uplocation  varchar,
		uplatitude  double precision,
		uplongitude double precision`,
}

// tableColumns fixes the column order used by the staging copy and the merge.
var tableColumns = map[string][]string{
	TableCongestion: {
		"id", "offer_date", "offer_day", "offer_hour", "event_no",
		"congestion_degree", "congestion_length",
	},
	TableRoad: {
		"id", "pref_no", "course_no", "course_name", "dir_name",
		"low_kp", "low_latitude", "low_longitude", "low_altitude", "low_spot_name", "low_cityname_code",
		"up_kp", "up_latitude", "up_longitude", "up_altitude", "up_spot_name", "up_cityname_code",
	},
	TableRegulation: {
		"id", "time", "event_no", "event_seq", "regulation", "link_distance", "reason",
	},
	TableCongestionHour: {
		"id", "time", "allcount", "lightcongestion", "heavycongestion",
		"averagelength", "maxlength", "congestiontime", "congestionamount", "linklength",
	},
	TableRoadHour: {
		"id", "roadname", "direction", "dwlocation", "dwlatitude", "dwlongitude",
		"uplocation", "uplatitude", "uplongitude",
	},
}

func destinationDDL(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (id))", table, columnDefs[table])
}

func stagingDDL(staging string, table string) string {
	return fmt.Sprintf("CREATE TEMPORARY TABLE %s (%s) ON COMMIT DROP", staging, columnDefs[table])
}
