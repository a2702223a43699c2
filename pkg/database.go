package singleshot

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

type roiWindowEntry struct {
	Name     string `db:"Name"`
	RowStart int    `db:"RowStart"`
	RowStop  int    `db:"RowStop"`
	ColStart int    `db:"ColStart"`
	ColStop  int    `db:"ColStop"`
}

// GetROIsFromDB reads the diffraction-spot windows valid for a run.
// Windows are keyed by run range so a reprocessing months later picks
// up the same geometry the beamline used at acquisition time.
func GetROIsFromDB(db *sqlx.DB, runNumber int) (ROISet, error) {
	query := "SELECT Name, RowStart, RowStop, ColStart, ColStop FROM RoiWindows WHERE MinRun <= %d and MaxRun >= %d ORDER BY Name"
	query = fmt.Sprintf(query, runNumber, runNumber)

	if configuration.Verbosity > 0 {
		logger.Info("Reading ROI windows from database", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		logger.Info(message, "database")
	}

	rows, err := db.Queryx(query)
	if err != nil {
		errMessage := fmt.Errorf("error querying database: %w", err)
		return nil, errMessage
	}

	rois := make(ROISet)
	for rows.Next() {
		result := roiWindowEntry{}
		err := rows.StructScan(&result)
		if err != nil {
			errMessage := fmt.Errorf("error scanning DB row: %w", err)
			return nil, errMessage
		}
		rois[result.Name] = ROI{
			Rows: Span{Start: result.RowStart, Stop: result.RowStop},
			Cols: Span{Start: result.ColStart, Stop: result.ColStop},
		}
	}
	return rois, nil
}
