package sqldataset

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const (
	// MaxDiscreteValueInsertionsPerStatement is the maximum number
	// of discrete values that are allowed to be added with a single
	// insert command with the AddDiscreteValues method of the adapter.
	// Trying to add more will result in making more insertion commands
	MaxDiscreteValueInsertionsPerStatement = 10

	// MaxSampleInsertionsPerStatement is the maximum number
	// of samples that are allowed to be added with a single
	// insert command with the AddSamples method of the adapter.
	// Trying to add more will result in making more insertion commands
	MaxSampleInsertionsPerStatement = 10
)

/*
Adapter is the interface a SQL database must be accessed through to back
a Set. Raw samples are maps of column names to values, discrete values
being the int ID of the label on the discrete values table.
*/
type Adapter interface {
	// ColumnName translates a feature name into the name of
	// the column holding its values, or returns an error if
	// the feature name cannot be used.
	ColumnName(featureName string) (string, error)
	CreateDiscreteValuesTable(ctx context.Context) error
	CreateSampleTable(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string) error
	AddDiscreteValues(ctx context.Context, values []string) (int, error)
	ListDiscreteValues(ctx context.Context) (map[int]string, error)
	AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteFeatureColumns, continuousFeatureColumns []string) (int, error)
	ListSamples(ctx context.Context, criteria []*FeatureCriterion, discreteFeatureColumns, continuousFeatureColumns []string) ([]map[string]interface{}, error)
	IterateOnSamples(ctx context.Context, criteria []*FeatureCriterion, discreteFeatureColumns, continuousFeatureColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error
	CountSamples(ctx context.Context, criteria []*FeatureCriterion) (int, error)
	// SumSamples returns how many samples satisfying the criteria
	// have a value on the column, and the sum of those values and
	// of their squares.
	SumSamples(ctx context.Context, column string, criteria []*FeatureCriterion) (int, float64, float64, error)
	Close() error
}

/*
Dialect holds the differences between the SQL databases an adapter can
work with.
*/
type Dialect struct {
	// Placeholder returns the placeholder for the i-th
	// (1-based) argument of a statement
	Placeholder func(i int) string
	// SerialPrimaryKey is the column definition of an
	// auto-incremented integer primary key
	SerialPrimaryKey string
	// RealType is the column type for float64 values
	RealType string
}

var (
	// PostgreSQL is the Dialect of PostgreSQL databases
	PostgreSQL = Dialect{
		Placeholder:      func(i int) string { return fmt.Sprintf("$%d", i) },
		SerialPrimaryKey: "SERIAL PRIMARY KEY",
		RealType:         "DOUBLE PRECISION",
	}
	// SQLite3 is the Dialect of SQLite3 databases
	SQLite3 = Dialect{
		Placeholder:      func(int) string { return "?" },
		SerialPrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
		RealType:         "REAL",
	}
)

type adapter struct {
	db      *sql.DB
	dialect Dialect
}

// NewAdapter returns an Adapter working on the given database with the
// given dialect.
func NewAdapter(db *sql.DB, dialect Dialect) Adapter {
	return &adapter{db, dialect}
}

func (a *adapter) ColumnName(featureName string) (string, error) {
	if featureName == "id" {
		return "", fmt.Errorf(`'%s' is reserved and cannot be used as feature name`, featureName)
	}
	if strings.ContainsAny(featureName, `"`) {
		return "", fmt.Errorf(`feature name '%s' contains invalid character '"'`, featureName)
	}
	return featureName, nil
}

func (a *adapter) CreateDiscreteValuesTable(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS discreteValues (
		id %s,
		value TEXT UNIQUE NOT NULL)`, a.dialect.SerialPrimaryKey)
	_, err := a.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("running discreteValues creation statement: %v", err)
	}
	return nil
}

func (a *adapter) CreateSampleTable(ctx context.Context, discreteFeatureColumns, continuousFeatureColumns []string) error {
	var createStmtBuf bytes.Buffer
	createStmtBuf.WriteString("CREATE TABLE IF NOT EXISTS samples(")
	for _, c := range discreteFeatureColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" INTEGER NULL REFERENCES discreteValues(id), `, c))
	}
	for _, c := range continuousFeatureColumns {
		createStmtBuf.WriteString(fmt.Sprintf(`"%s" %s NULL, `, c, a.dialect.RealType))
	}
	createStmtBuf.WriteString(fmt.Sprintf(`"id" %s)`, a.dialect.SerialPrimaryKey))
	_, err := a.db.ExecContext(ctx, createStmtBuf.String())
	if err != nil {
		return fmt.Errorf("ensuring samples table exists: %v", err)
	}
	return nil
}

func (a *adapter) AddDiscreteValues(ctx context.Context, values []string) (int, error) {
	rows := make([][]interface{}, len(values))
	for i, v := range values {
		rows[i] = []interface{}{v}
	}
	return a.insert(ctx, "discreteValues", []string{"value"}, rows, MaxDiscreteValueInsertionsPerStatement)
}

func (a *adapter) ListDiscreteValues(ctx context.Context) (map[int]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, value FROM discreteValues`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int]string)
	for rows.Next() {
		var id int
		var value string
		err = rows.Scan(&id, &value)
		if err != nil {
			return nil, err
		}
		result[id] = value
	}
	return result, rows.Err()
}

func (a *adapter) AddSamples(ctx context.Context, rawSamples []map[string]interface{}, discreteFeatureColumns, continuousFeatureColumns []string) (int, error) {
	columns := append(append([]string{}, discreteFeatureColumns...), continuousFeatureColumns...)
	if len(columns) == 0 {
		return 0, fmt.Errorf("no features to store")
	}
	rows := make([][]interface{}, len(rawSamples))
	for i, rs := range rawSamples {
		rows[i] = make([]interface{}, len(columns))
		for j, c := range columns {
			rows[i][j] = rs[c]
		}
	}
	return a.insert(ctx, "samples", columns, rows, MaxSampleInsertionsPerStatement)
}

// insert adds the rows to the table with statements of at most chunkSize
// rows each, returning how many rows were added.
func (a *adapter) insert(ctx context.Context, table string, columns []string, rows [][]interface{}, chunkSize int) (int, error) {
	var inserted int
	for inserted < len(rows) {
		end := inserted + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[inserted:end]
		var stmt bytes.Buffer
		stmt.WriteString(fmt.Sprintf(`INSERT INTO %s ("%s") VALUES `, table, strings.Join(columns, `", "`)))
		args := make([]interface{}, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if i > 0 {
				stmt.WriteString(", ")
			}
			stmt.WriteString("(")
			for j, v := range row {
				if j > 0 {
					stmt.WriteString(", ")
				}
				args = append(args, v)
				stmt.WriteString(a.dialect.Placeholder(len(args)))
			}
			stmt.WriteString(")")
		}
		_, err := a.db.ExecContext(ctx, stmt.String(), args...)
		if err != nil {
			return inserted, fmt.Errorf("inserting %d rows into %s: %v", len(chunk), table, err)
		}
		inserted = end
	}
	return inserted, nil
}

func (a *adapter) ListSamples(ctx context.Context, criteria []*FeatureCriterion, discreteFeatureColumns, continuousFeatureColumns []string) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	err := a.IterateOnSamples(
		ctx,
		criteria,
		discreteFeatureColumns,
		continuousFeatureColumns,
		func(_ int, rawSample map[string]interface{}) (bool, error) {
			result = append(result, rawSample)
			return true, nil
		})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (a *adapter) IterateOnSamples(ctx context.Context, criteria []*FeatureCriterion, discreteFeatureColumns, continuousFeatureColumns []string, lambda func(int, map[string]interface{}) (bool, error)) error {
	columns := append(append([]string{}, discreteFeatureColumns...), continuousFeatureColumns...)
	if len(columns) == 0 {
		return fmt.Errorf("no features to read")
	}
	whereClause, whereValues := buildWhereClause(criteria, a.dialect.Placeholder)
	query := fmt.Sprintf(`SELECT "%s" FROM samples%s ORDER BY "id"`, strings.Join(columns, `", "`), whereClause)
	rows, err := a.db.QueryContext(ctx, query, whereValues...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for j := 0; rows.Next(); j++ {
		rawSample := make(map[string]interface{})
		discreteValues := make([]sql.NullInt64, len(discreteFeatureColumns))
		continuousValues := make([]sql.NullFloat64, len(continuousFeatureColumns))
		values := make([]interface{}, 0, len(columns))
		for i := range discreteValues {
			values = append(values, &discreteValues[i])
		}
		for i := range continuousValues {
			values = append(values, &continuousValues[i])
		}
		err = rows.Scan(values...)
		if err != nil {
			return err
		}
		for i, c := range discreteFeatureColumns {
			if discreteValues[i].Valid {
				rawSample[c] = int(discreteValues[i].Int64)
			}
		}
		for i, c := range continuousFeatureColumns {
			if continuousValues[i].Valid {
				rawSample[c] = continuousValues[i].Float64
			}
		}
		ok, err := lambda(j, rawSample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return rows.Err()
}

func (a *adapter) CountSamples(ctx context.Context, criteria []*FeatureCriterion) (int, error) {
	whereClause, whereValues := buildWhereClause(criteria, a.dialect.Placeholder)
	var count int
	err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`+whereClause, whereValues...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (a *adapter) SumSamples(ctx context.Context, column string, criteria []*FeatureCriterion) (int, float64, float64, error) {
	whereClause, whereValues := buildWhereClause(criteria, a.dialect.Placeholder)
	query := fmt.Sprintf(`SELECT COUNT("%[1]s"), SUM("%[1]s"), SUM("%[1]s" * "%[1]s") FROM samples%[2]s`, column, whereClause)
	var count int
	var sum, sumOfSquares sql.NullFloat64
	err := a.db.QueryRowContext(ctx, query, whereValues...).Scan(&count, &sum, &sumOfSquares)
	if err != nil {
		return 0, 0, 0, err
	}
	return count, sum.Float64, sumOfSquares.Float64, nil
}

func (a *adapter) Close() error {
	return a.db.Close()
}
