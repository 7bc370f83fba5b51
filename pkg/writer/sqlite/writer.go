// Package sqlite provides SQLite database writing for quantification reports
package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/ProtQuant/pkg/annotation"
	"github.com/ChrisMcGann/ProtQuant/pkg/core"
	"github.com/ChrisMcGann/ProtQuant/pkg/de"
	"github.com/ChrisMcGann/ProtQuant/pkg/pipeline"
	"github.com/ChrisMcGann/ProtQuant/pkg/stats"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// SchemaVersion is bumped whenever a table changes
	SchemaVersion = 1
)

// Matrix levels stored in IntensityTable
const (
	LevelPeptide = "peptide"
	LevelProtein = "protein"
)

// Writer handles writing quantification results to SQLite database files
type Writer struct {
	db            *sql.DB
	outputPath    string
	intensityStmt *sql.Stmt
	closed        bool
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT
	);

	CREATE TABLE IF NOT EXISTS SampleTable (
		SampleIndex INTEGER NOT NULL,
		Sample TEXT PRIMARY KEY,
		Condition TEXT NOT NULL,
		Attributes TEXT
	);

	CREATE TABLE IF NOT EXISTS PeptideMapTable (
		Peptide TEXT PRIMARY KEY,
		Protein TEXT NOT NULL,
		Field TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS IntensityTable (
		Level TEXT NOT NULL,
		Provenance TEXT NOT NULL,
		Entity TEXT NOT NULL,
		Sample TEXT NOT NULL,
		Intensity DOUBLE
	);

	CREATE TABLE IF NOT EXISTS DetectionTable (
		Level TEXT NOT NULL,
		Entity TEXT NOT NULL,
		Condition TEXT NOT NULL,
		Detected BOOL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS SummaryTable (
		Entity TEXT NOT NULL,
		Condition TEXT NOT NULL,
		N INTEGER NOT NULL,
		Mean DOUBLE,
		Variance DOUBLE
	);

	CREATE TABLE IF NOT EXISTS SimilarityTable (
		Kind TEXT NOT NULL,
		SampleA TEXT NOT NULL,
		SampleB TEXT NOT NULL,
		Value DOUBLE
	);

	CREATE TABLE IF NOT EXISTS HistogramTable (
		Kind TEXT NOT NULL,
		Lower DOUBLE NOT NULL,
		Upper DOUBLE NOT NULL,
		Count INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS DendrogramTable (
		Step INTEGER PRIMARY KEY,
		LeftId INTEGER NOT NULL,
		RightId INTEGER NOT NULL,
		Height DOUBLE NOT NULL,
		Size INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS SampleOrderTable (
		Position INTEGER PRIMARY KEY,
		Sample TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS DifferentialTable (
		Entity TEXT NOT NULL,
		ConditionA TEXT NOT NULL,
		ConditionB TEXT NOT NULL,
		FoldChange DOUBLE,
		PValue DOUBLE,
		AdjustedP DOUBLE,
		Significant BOOL NOT NULL,
		ObservedA INTEGER NOT NULL,
		ObservedB INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS AnnotationTable (
		Entity TEXT NOT NULL,
		Field TEXT NOT NULL,
		Value TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.intensityStmt, err = w.db.Prepare(`
		INSERT INTO IntensityTable (Level, Provenance, Entity, Sample, Intensity)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare intensity statement: %w", err)
	}

	return nil
}

// inTx runs fn with a statement prepared inside one transaction
func (w *Writer) inTx(query string, fn func(stmt *sql.Stmt) error) error {
	if w.closed {
		return fmt.Errorf("write to closed database %s", w.outputPath)
	}
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// nullable maps a missing value to SQL NULL
func nullable(v core.Value) interface{} {
	if x, ok := v.Float(); ok {
		return x
	}
	return nil
}

// WriteSamples writes the sample sheet
func (w *Writer) WriteSamples(samples *core.SampleSet) error {
	return w.inTx(`INSERT INTO SampleTable (SampleIndex, Sample, Condition, Attributes) VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for i := 0; i < samples.Len(); i++ {
				s := samples.At(i)
				if _, err := stmt.Exec(i, s.ID, s.Condition, encodeAttributes(s.Attributes)); err != nil {
					return fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
				}
			}
			return nil
		})
}

// WritePeptideMap writes the peptide-to-protein relation
func (w *Writer) WritePeptideMap(pm *core.PeptideMap) error {
	return w.inTx(`INSERT INTO PeptideMapTable (Peptide, Protein, Field) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, pep := range pm.Peptides() {
				prot, _ := pm.Protein(pep)
				if _, err := stmt.Exec(pep, prot, string(pm.Field())); err != nil {
					return fmt.Errorf("failed to insert peptide %s: %w", pep, err)
				}
			}
			return nil
		})
}

// WriteMatrix writes a matrix in long format, one row per cell. Missing
// cells are stored as NULL so that zero stays distinguishable.
func (w *Writer) WriteMatrix(level string, m *core.Matrix) error {
	if w.closed {
		return fmt.Errorf("write to closed database %s", w.outputPath)
	}
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt := tx.Stmt(w.intensityStmt)
	defer stmt.Close()

	provenance := m.Provenance()
	samples := m.Samples()
	for i, key := range m.Rows() {
		for j, sample := range samples {
			if _, err := stmt.Exec(level, provenance, key, sample, nullable(m.At(i, j))); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to insert intensity %s@%s: %w", key, sample, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// WriteDetection writes a detection table
func (w *Writer) WriteDetection(level string, dt *stats.DetectionTable) error {
	return w.inTx(`INSERT INTO DetectionTable (Level, Entity, Condition, Detected) VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			conds := dt.Conditions()
			for i, key := range dt.Rows() {
				for c, cond := range conds {
					if _, err := stmt.Exec(level, key, cond, dt.At(i, c)); err != nil {
						return fmt.Errorf("failed to insert detection %s: %w", key, err)
					}
				}
			}
			return nil
		})
}

// WriteSummary writes per-condition means and variances
func (w *Writer) WriteSummary(s *stats.ConditionSummary) error {
	return w.inTx(`INSERT INTO SummaryTable (Entity, Condition, N, Mean, Variance) VALUES (?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			conds := s.Conditions()
			for i, key := range s.Rows() {
				for c, cond := range conds {
					if _, err := stmt.Exec(key, cond, s.Count(i, c), nullable(s.Mean(i, c)), nullable(s.Variance(i, c))); err != nil {
						return fmt.Errorf("failed to insert summary %s: %w", key, err)
					}
				}
			}
			return nil
		})
}

// WriteSimilarity writes the upper triangle, diagonal included, of a
// sample-by-sample matrix
func (w *Writer) WriteSimilarity(kind string, sq *stats.SquareMatrix) error {
	return w.inTx(`INSERT INTO SimilarityTable (Kind, SampleA, SampleB, Value) VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			labels := sq.Labels()
			for i := range labels {
				for j := i; j < len(labels); j++ {
					if _, err := stmt.Exec(kind, labels[i], labels[j], nullable(sq.At(i, j))); err != nil {
						return fmt.Errorf("failed to insert %s %s/%s: %w", kind, labels[i], labels[j], err)
					}
				}
			}
			return nil
		})
}

// WriteHistogram writes histogram bins
func (w *Writer) WriteHistogram(kind string, bins []stats.Bin) error {
	return w.inTx(`INSERT INTO HistogramTable (Kind, Lower, Upper, Count) VALUES (?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, b := range bins {
				if _, err := stmt.Exec(kind, b.Lower, b.Upper, b.Count); err != nil {
					return fmt.Errorf("failed to insert %s bin: %w", kind, err)
				}
			}
			return nil
		})
}

// WriteDendrogram writes the merge steps and the leaf order
func (w *Writer) WriteDendrogram(d *stats.Dendrogram) error {
	err := w.inTx(`INSERT INTO DendrogramTable (Step, LeftId, RightId, Height, Size) VALUES (?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for k, m := range d.Merges {
				if _, err := stmt.Exec(k+1, m.Left, m.Right, m.Height, m.Size); err != nil {
					return fmt.Errorf("failed to insert merge %d: %w", k+1, err)
				}
			}
			return nil
		})
	if err != nil {
		return err
	}
	return w.inTx(`INSERT INTO SampleOrderTable (Position, Sample) VALUES (?, ?)`,
		func(stmt *sql.Stmt) error {
			for pos, label := range d.OrderedLabels() {
				if _, err := stmt.Exec(pos, label); err != nil {
					return fmt.Errorf("failed to insert sample order: %w", err)
				}
			}
			return nil
		})
}

// WriteDifferential writes the differential expression table
func (w *Writer) WriteDifferential(res *de.Result) error {
	return w.inTx(`
		INSERT INTO DifferentialTable (
			Entity, ConditionA, ConditionB, FoldChange, PValue,
			AdjustedP, Significant, ObservedA, ObservedB
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for _, row := range res.Rows {
				_, err := stmt.Exec(
					row.Entity,               // Entity
					res.ConditionA,           // ConditionA
					res.ConditionB,           // ConditionB
					nullable(row.FoldChange), // FoldChange
					nullable(row.PValue),     // PValue
					nullable(row.AdjustedP),  // AdjustedP
					row.Significant,          // Significant
					row.ObservedA,            // ObservedA
					row.ObservedB,            // ObservedB
				)
				if err != nil {
					return fmt.Errorf("failed to insert result %s: %w", row.Entity, err)
				}
			}
			return nil
		})
}

// WriteAnnotation writes the joined annotation in long format. Unmatched
// rows are skipped.
func (w *Writer) WriteAnnotation(a *annotation.Annotated) error {
	return w.inTx(`INSERT INTO AnnotationTable (Entity, Field, Value) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) error {
			for i, key := range a.Matrix.Rows() {
				fields, ok := a.Fields(i)
				if !ok {
					continue
				}
				for c, col := range a.Columns {
					if _, err := stmt.Exec(key, col, fields[c]); err != nil {
						return fmt.Errorf("failed to insert annotation %s: %w", key, err)
					}
				}
			}
			return nil
		})
}

// WriteReport writes every product of a pipeline run
func (w *Writer) WriteReport(rep *pipeline.Report) error {
	type step struct {
		name string
		fn   func() error
	}
	steps := []step{
		{"samples", func() error { return w.WriteSamples(rep.Samples) }},
		{"peptide map", func() error { return w.WritePeptideMap(rep.Peptides.Map) }},
		{"peptide matrix", func() error { return w.WriteMatrix(LevelPeptide, rep.Peptides.Matrix) }},
		{"normalized peptide matrix", func() error { return w.WriteMatrix(LevelPeptide, rep.NormalizedPeptides) }},
		{"protein matrix", func() error { return w.WriteMatrix(LevelProtein, rep.Proteins.Matrix) }},
		{"normalized protein matrix", func() error { return w.WriteMatrix(LevelProtein, rep.NormalizedProteins) }},
		{"peptide detection", func() error { return w.WriteDetection(LevelPeptide, rep.PeptideDetection) }},
		{"protein detection", func() error { return w.WriteDetection(LevelProtein, rep.ProteinDetection) }},
		{"summary", func() error { return w.WriteSummary(rep.Summary) }},
		{"jaccard", func() error { return w.WriteSimilarity("jaccard", rep.Jaccard) }},
		{"jaccard histogram", func() error { return w.WriteHistogram("jaccard", rep.JaccardHistogram) }},
		{"correlation", func() error { return w.WriteSimilarity("correlation", rep.Correlation) }},
		{"dendrogram", func() error { return w.WriteDendrogram(rep.Dendrogram) }},
	}
	if rep.Annotated != nil {
		steps = append(steps, step{"annotation", func() error { return w.WriteAnnotation(rep.Annotated) }})
	}
	if rep.Differential != nil {
		steps = append(steps, step{"differential expression", func() error { return w.WriteDifferential(rep.Differential) }})
	}

	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
	}
	return nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true

	// Write HeaderTable
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description)
		VALUES (?, ?, ?)
	`, SchemaVersion, time.Now().Format(headerDateFormat), "ProtQuant quantification report")
	if err != nil {
		w.db.Close()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	if w.intensityStmt != nil {
		w.intensityStmt.Close()
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection. A report that was never finalized
// is left without its header row.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.intensityStmt != nil {
		w.intensityStmt.Close()
	}
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// encodeAttributes renders sample attributes as "key=value" pairs in key
// order
func encodeAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + attrs[k]
	}
	return strings.Join(pairs, ";")
}
