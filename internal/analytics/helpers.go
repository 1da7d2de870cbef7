package analytics

import (
	"database/sql"

	"github.com/tandembot/tandem/internal/models"
)

// scanAggregate reads one aggregateQuery result row into an Aggregate.
// The count column decides whether the optional fields are populated: with
// zero scored rows the averages and shares stay absent even though the
// engine returns a row.
func scanAggregate(row *sql.Row) (models.Aggregate, error) {
	var (
		count                      int
		creatorTotal, visitorTotal int64
		creatorAvg, visitorAvg     sql.NullFloat64
		shareCreator, shareVisitor sql.NullFloat64
	)
	err := row.Scan(&count, &creatorTotal, &visitorTotal,
		&creatorAvg, &visitorAvg, &shareCreator, &shareVisitor)
	if err != nil {
		return models.Aggregate{}, err
	}

	agg := models.Aggregate{
		CreatorTotal: int(creatorTotal),
		VisitorTotal: int(visitorTotal),
	}
	if count == 0 {
		return agg, nil
	}
	if creatorAvg.Valid {
		agg.CreatorAvg = &creatorAvg.Float64
	}
	if visitorAvg.Valid {
		agg.VisitorAvg = &visitorAvg.Float64
	}
	if shareCreator.Valid {
		agg.SharePositiveCreator = &shareCreator.Float64
	}
	if shareVisitor.Valid {
		agg.SharePositiveVisitor = &shareVisitor.Float64
	}
	return agg, nil
}
