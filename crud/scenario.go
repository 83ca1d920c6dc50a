package crud

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fatih/color"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/BrianaLong/CS340---Client-Server-Development/mdbid"
)

// Operations is the call surface of an Accessor.
type Operations interface {
	Create(document interface{}) bool
	Read(query interface{}) []Document
	Update(query, update interface{}, multiple bool) int64
	Delete(query interface{}, multiple bool) int64
}

var _ Operations = &Accessor{}

// Scenario is the fixed create, read, update, read, delete, read sequence
// used to check a collection end to end.
type Scenario struct {
	// Sample document to insert.
	Sample Document

	// Key is the query identifying the sample, it must match only the sample.
	Key Document

	// Changes are plain field assignments applied by the update step.
	Changes Document
}

// Step records one call of a scenario run.
type Step struct {
	Name      string
	Expected  string
	Result    string
	Documents []Document
	Passed    bool
}

// Report is the result of a scenario run.
type Report struct {
	Steps []Step
}

// Passed is true if every step passed.
func (r *Report) Passed() bool {
	for _, step := range r.Steps {
		if !step.Passed {
			return false
		}
	}
	return len(r.Steps) > 0
}

var (
	statusOK     = color.New(color.FgGreen).SprintFunc()
	statusFailed = color.New(color.FgWhite, color.BgRed).SprintFunc()
)

// Write a human readable report.
// Status is colored when color output is enabled, see color.NoColor.
func (r *Report) Write(w io.Writer) {
	for _, step := range r.Steps {
		status := statusOK("ok")
		if !step.Passed {
			status = statusFailed("FAILED")
		}
		fmt.Fprintf(w, "\n--- %s ---\n", step.Name)
		fmt.Fprintf(w, "Result: %s (expected %s) %s\n", step.Result, step.Expected, status)
		for _, document := range step.Documents {
			fmt.Fprintf(w, "  %v\n", document)
		}
	}
}

// Run the scenario against the operations.
// Every step runs even if an earlier one fails, so the delete step still cleans up.
func (s *Scenario) Run(ops Operations) *Report {
	report := &Report{}
	add := func(name, expected, result string, passed bool, documents []Document) {
		report.Steps = append(report.Steps, Step{
			Name:      name,
			Expected:  expected,
			Result:    result,
			Documents: documents,
			Passed:    passed,
		})
	}

	inserted := ops.Create(s.Sample)
	add("Create", "true", fmt.Sprint(inserted), inserted, nil)

	found := ops.Read(s.Key)
	add("Read", "the sample document", countOf(found), matchesOne(found, s.Sample), found)

	modified := ops.Update(s.Key, s.Changes, false)
	add("Update", "1 modified", fmt.Sprintf("%d modified", modified), modified == 1, nil)

	updated := merge(s.Sample, s.Changes)
	found = ops.Read(s.Key)
	add("Read after update", "the updated document", countOf(found), matchesOne(found, updated), found)

	deleted := ops.Delete(s.Key, false)
	add("Delete", "1 deleted", fmt.Sprintf("%d deleted", deleted), deleted == 1, nil)

	found = ops.Read(s.Key)
	add("Read after delete", "no documents", countOf(found), len(found) == 0, found)

	return report
}

func countOf(documents []Document) string {
	return fmt.Sprintf("%d documents", len(documents))
}

// matchesOne is true if there is exactly one document, it has an identifier,
// and it equals the expected one apart from that identifier.
func matchesOne(documents []Document, expected Document) bool {
	if len(documents) != 1 {
		return false
	}
	if _, assigned := mdbid.Of(documents[0]); !assigned {
		return false
	}
	got, err := normalize(mdbid.Without(documents[0]))
	if err != nil {
		return false
	}
	want, err := normalize(mdbid.Without(expected))
	if err != nil {
		return false
	}
	return reflect.DeepEqual(got, want)
}

// normalize passes a document through BSON so Go values compare equal
// to what the database returns (e.g. int vs int32).
func normalize(document Document) (bson.M, error) {
	raw, err := bson.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	var normal bson.M
	if err = bson.Unmarshal(raw, &normal); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return normal, nil
}

func merge(base, changes Document) Document {
	merged := make(Document, len(base)+len(changes))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range changes {
		merged[key] = value
	}
	return merged
}
