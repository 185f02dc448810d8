package store

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trafficlab/roadbench/internal/chunk"
	"github.com/trafficlab/roadbench/internal/common/ingest"
	"github.com/trafficlab/roadbench/internal/common/ingest/metrics"
	"github.com/trafficlab/roadbench/internal/common/roaderrors"
	"github.com/trafficlab/roadbench/internal/mapper"
	"github.com/trafficlab/roadbench/internal/model"
	"github.com/trafficlab/roadbench/internal/roadbench/configuration"
)

// Mongo loads the datasets into mongodb collections named like the relational
// tables. Documents are keyed by _id = record id so the unique index on _id
// rejects duplicates; those rejections are absorbed, making inserts
// idempotent the same way the relational merge is.
type Mongo struct {
	client  *mongo.Client
	db      *mongo.Database
	metrics *metrics.Metrics
	config  *configuration.RoadbenchConfiguration
	closed  bool
}

func NewMongo(ctx context.Context, config *configuration.RoadbenchConfiguration, m *metrics.Metrics) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.Mongo.Url))
	if err != nil {
		return nil, errors.WithMessage(err, "Error opening connection to mongodb")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.WithMessage(err, "Error pinging mongodb")
	}
	return &Mongo{
		client:  client,
		db:      client.Database(config.Mongo.Database),
		metrics: m,
		config:  config,
	}, nil
}

func (s *Mongo) Name() string {
	return "mongo"
}

func (s *Mongo) Insert5Min(ctx context.Context, path string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	source, err := chunk.NewReader(path, '\t', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.FiveMinute{}, s, s.metrics).Run(ctx)
}

func (s *Mongo) Insert1Hour(ctx context.Context, path string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	source, err := chunk.NewReader(path, ',', s.config.ChunkSize)
	if err != nil {
		return err
	}
	defer source.Close()
	return ingest.NewIngestionPipeline[*model.RecordSet](source, mapper.Hourly{}, s, s.metrics).Run(ctx)
}

// Store inserts one converted chunk, batchSize documents per InsertMany.
// Collections spring into existence on first insert; there is no staging on
// the document side.
func (s *Mongo) Store(ctx context.Context, set *model.RecordSet) error {
	if err := s.insertBatched(ctx, TableCongestion, congestionDocs(set.Congestion)); err != nil {
		return err
	}
	if err := s.insertBatched(ctx, TableRoad, roadDocs(set.Road)); err != nil {
		return err
	}
	if err := s.insertBatched(ctx, TableRegulation, regulationDocs(set.Regulation)); err != nil {
		return err
	}
	if err := s.insertBatched(ctx, TableCongestionHour, congestionHourDocs(set.CongestionHour)); err != nil {
		return err
	}
	return s.insertBatched(ctx, TableRoadHour, roadHourDocs(set.RoadHour))
}

func (s *Mongo) Read5Min(ctx context.Context) (int64, error) {
	return s.countCollections(ctx, FiveMinuteTables)
}

func (s *Mongo) Read1Hour(ctx context.Context) (int64, error) {
	return s.countCollections(ctx, HourlyTables)
}

func (s *Mongo) Delete(ctx context.Context, scope string) error {
	if s.closed {
		return errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	collections, row, err := parseScope(scope)
	if err != nil {
		return err
	}
	if row != nil {
		if _, err := s.db.Collection(row.Table).DeleteOne(ctx, bson.M{"_id": row.Id}); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationDelete)
			return errors.WithStack(err)
		}
		return nil
	}
	for _, collection := range collections {
		if err := s.db.Collection(collection).Drop(ctx); err != nil {
			s.metrics.RecordDBError(metrics.DBOperationDelete)
			return errors.WithStack(err)
		}
	}
	return nil
}

func (s *Mongo) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Disconnect(context.Background())
}

func (s *Mongo) countCollections(ctx context.Context, collections []string) (int64, error) {
	if s.closed {
		return 0, errors.WithStack(&roaderrors.ErrClosed{Backend: s.Name()})
	}
	var total int64
	for _, collection := range collections {
		count, err := s.db.Collection(collection).CountDocuments(ctx, bson.D{})
		if err != nil {
			s.metrics.RecordDBError(metrics.DBOperationRead)
			return 0, errors.WithStack(err)
		}
		total += count
	}
	return total, nil
}

// insertBatched writes documents with unordered InsertMany and absorbs
// duplicate key rejections; any other write error propagates.
func (s *Mongo) insertBatched(ctx context.Context, collection string, docs []interface{}) error {
	coll := s.db.Collection(collection)
	for start := 0; start < len(docs); start += s.config.BatchSize {
		batch := docs[start:min(start+s.config.BatchSize, len(docs))]
		_, err := coll.InsertMany(ctx, batch, options.InsertMany().SetOrdered(false))
		if err == nil {
			s.metrics.RecordRowsLoaded(collection, len(batch))
			continue
		}
		skipped, err := absorbDuplicateKeys(err)
		if err != nil {
			s.metrics.RecordDBError(metrics.DBOperationInsert)
			return errors.WithStack(err)
		}
		s.metrics.RecordRowsSkipped(collection, skipped)
		s.metrics.RecordRowsLoaded(collection, len(batch)-skipped)
		log.Debugf("Skipped %d duplicate documents inserting into %s", skipped, collection)
	}
	return nil
}

// absorbDuplicateKeys inspects a bulk write failure. If every write error is
// a duplicate key rejection the failure is absorbed and the rejection count
// returned; anything else comes back as the error.
func absorbDuplicateKeys(err error) (int, error) {
	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return 0, err
	}
	if bulkErr.WriteConcernError != nil {
		return 0, err
	}
	for _, writeErr := range bulkErr.WriteErrors {
		if !mongo.IsDuplicateKeyError(writeErr) {
			return 0, err
		}
	}
	return len(bulkErr.WriteErrors), nil
}

func congestionDocs(rows []*model.CongestionRow) []interface{} {
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.D{
			{Key: "_id", Value: r.Id},
			{Key: "offer_date", Value: r.OfferDate},
			{Key: "offer_day", Value: r.OfferDay},
			{Key: "offer_hour", Value: r.OfferHour},
			{Key: "event_no", Value: r.EventNo},
			{Key: "congestion_degree", Value: r.CongestionDegree},
			{Key: "congestion_length", Value: r.CongestionLength},
		}
	}
	return docs
}

// roadDocs applies the document side's renames: spot names become locations,
// latitudes and longitudes take the dw/up prefixes.
func roadDocs(rows []*model.RoadRow) []interface{} {
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.D{
			{Key: "_id", Value: r.Id},
			{Key: "pref_no", Value: r.PrefNo},
			{Key: "course_no", Value: r.CourseNo},
			{Key: "roadname", Value: r.CourseName},
			{Key: "direction", Value: r.DirName},
			{Key: "low_kp", Value: r.LowKp},
			{Key: "dwlatitude", Value: r.LowLatitude},
			{Key: "dwlongitude", Value: r.LowLongitude},
			{Key: "low_altitude", Value: r.LowAltitude},
			{Key: "dwlocation", Value: r.LowSpotName},
			{Key: "low_cityname_code", Value: r.LowCitynameCode},
			{Key: "up_kp", Value: r.UpKp},
			{Key: "uplatitude", Value: r.UpLatitude},
			{Key: "uplongitude", Value: r.UpLongitude},
			{Key: "up_altitude", Value: r.UpAltitude},
			{Key: "uplocation", Value: r.UpSpotName},
			{Key: "up_cityname_code", Value: r.UpCitynameCode},
		}
	}
	return docs
}

func regulationDocs(rows []*model.RegulationRow) []interface{} {
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.D{
			{Key: "_id", Value: r.Id},
			{Key: "time", Value: r.Time},
			{Key: "event_no", Value: r.EventNo},
			{Key: "event_seq", Value: r.EventSeq},
			{Key: "regulation", Value: r.Regulation},
			{Key: "link_distance", Value: r.LinkDistance},
			{Key: "reason", Value: r.Reason},
		}
	}
	return docs
}

func congestionHourDocs(rows []*model.CongestionHourRow) []interface{} {
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.D{
			{Key: "_id", Value: r.Id},
			{Key: "time", Value: r.Time},
			{Key: "allcount", Value: r.AllCount},
			{Key: "lightcongestion", Value: r.LightCongestion},
			{Key: "heavycongestion", Value: r.HeavyCongestion},
			{Key: "averagelength", Value: r.AverageLength},
			{Key: "maxlength", Value: r.MaxLength},
			{Key: "congestiontime", Value: r.CongestionTime},
			{Key: "congestionamount", Value: r.CongestionAmount},
			{Key: "linklength", Value: r.LinkLength},
		}
	}
	return docs
}

func roadHourDocs(rows []*model.RoadHourRow) []interface{} {
	docs := make([]interface{}, len(rows))
	for i, r := range rows {
		docs[i] = bson.D{
			{Key: "_id", Value: r.Id},
			{Key: "roadname", Value: r.RoadName},
			{Key: "direction", Value: r.Direction},
			{Key: "dwlocation", Value: r.DwLocation},
			{Key: "dwlatitude", Value: r.DwLatitude},
			{Key: "dwlongitude", Value: r.DwLongitude},
			{Key: "uplocation", Value: r.UpLocation},
			{Key: "uplatitude", Value: r.UpLatitude},
			{Key: "uplongitude", Value: r.UpLongitude},
		}
	}
	return docs
}
