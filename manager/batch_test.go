package manager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dot5enko/halo2-color-plate-extractor/tag/tagtest"
)

// writeBatch stores valid tags and broken ones under root and returns how
// many of each it wrote.
func writeBatch(t *testing.T, root string) (valid, broken int) {
	t.Helper()

	for i := 0; i < 9; i++ {
		rel := filepath.Join(fmt.Sprintf("dir%d", i%3), fmt.Sprintf("ok%d.bitmap", i))
		tagtest.WriteFile(t, root, rel, tagtest.Valid(uint16(i+1), uint16(9-i)))
		valid++
	}

	noPlate := tagtest.Valid(2, 2)
	noPlate.CompressedLength = tagtest.U32(0)

	mismatch := tagtest.Valid(2, 2)
	mismatch.DeclaredLength = tagtest.U32(1)

	badMagic := tagtest.Valid(2, 2)
	badMagic.Magic = 1

	for i, p := range []tagtest.Plate{noPlate, mismatch, badMagic} {
		tagtest.WriteFile(t, root, fmt.Sprintf("broken%d.bitmap", i), p)
		broken++
	}

	if err := os.WriteFile(filepath.Join(root, "short.bitmap"), []byte("mtib"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken++

	return valid, broken
}

func TestRunBatch(t *testing.T) {

	for _, scheduler := range []SchedulerKind{SlotScheduler, QueueScheduler} {
		for _, workers := range []int{1, 2, 3, 16} {
			t.Run(fmt.Sprintf("%s/%d", scheduler, workers), func(t *testing.T) {

				env := newTestEnv(t, ManagerConfig{Workers: workers, Scheduler: scheduler})
				valid, broken := writeBatch(t, env.tags)

				report, err := env.manager.RunBatch(false)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				if report.Attempted != uint64(valid+broken) {
					t.Errorf("Expected %d attempted but got %d", valid+broken, report.Attempted)
				}
				if report.Extracted != uint64(valid) {
					t.Errorf("Expected %d extracted but got %d", valid, report.Extracted)
				}

				if lines := strings.Count(env.out.String(), "Extracted "); lines != valid {
					t.Errorf("Expected %d success lines but got %d", valid, lines)
				}
				if lines := strings.Count(env.err.String(), "\n"); lines != broken {
					t.Errorf("Expected %d failure lines but got %d: %q", broken, lines, env.err.String())
				}

				images := 0
				filepath.WalkDir(env.data, func(path string, d os.DirEntry, err error) error {
					if err == nil && !d.IsDir() && filepath.Ext(path) == DataExtension {
						images++
					}
					return nil
				})
				if images != valid {
					t.Errorf("Expected %d images but found %d", valid, images)
				}
			})
		}
	}
}

func TestRunBatchKeepsExistingImages(t *testing.T) {

	env := newTestEnv(t, ManagerConfig{Workers: 2})
	valid, broken := writeBatch(t, env.tags)

	if _, err := env.manager.RunBatch(false); err != nil {
		t.Fatal(err)
	}

	again, err := env.manager.RunBatch(false)
	if err != nil {
		t.Fatal(err)
	}
	if again.Extracted != 0 || again.Attempted != uint64(valid+broken) {
		t.Errorf("second batch without overwrite: %+v", again)
	}

	overwritten, err := env.manager.RunBatch(true)
	if err != nil {
		t.Fatal(err)
	}
	if overwritten.Extracted != uint64(valid) {
		t.Errorf("Expected %d overwritten but got %d", valid, overwritten.Extracted)
	}

	if env.manager.Extracted() != uint64(2*valid) {
		t.Errorf("Expected counter %d but got %d", 2*valid, env.manager.Extracted())
	}
}

func TestRunBatchEmptyTree(t *testing.T) {

	env := newTestEnv(t, ManagerConfig{})

	report, err := env.manager.RunBatch(false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Attempted != 0 || report.Extracted != 0 {
		t.Errorf("Expected an empty report but got %+v", report)
	}
}

func TestRunBatchMissingRoot(t *testing.T) {

	env := newTestEnv(t, ManagerConfig{})
	env.manager.config.TagsRoot = filepath.Join(env.tags, "nope")

	if _, err := env.manager.RunBatch(false); err == nil {
		t.Errorf("Expected a discovery error")
	}
}

func TestBatchReportSummary(t *testing.T) {

	cases := []struct {
		report   BatchReport
		expected string
	}{
		{BatchReport{Extracted: 1, Attempted: 1, Elapsed: 1500 * time.Microsecond}, "Extracted 1 / 1 color plate in 1.500 ms"},
		{BatchReport{Extracted: 3, Attempted: 5, Elapsed: 2 * time.Second}, "Extracted 3 / 5 color plates in 2000.000 ms"},
		{BatchReport{}, "Extracted 0 / 0 color plates in 0.000 ms"},
	}

	for _, c := range cases {
		if got := c.report.Summary(); got != c.expected {
			t.Errorf("Expected %q but got %q", c.expected, got)
		}
	}
}
