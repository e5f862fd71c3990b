package ledger_test

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
	"mothball/internal/ledger"

	_ "github.com/mattn/go-sqlite3"
)

type LedgerLifecycleSuite struct {
	suite.Suite
	tmpDir string
	dbPath string
	ledger *ledger.Ledger
	db     *sql.DB
}

func (s *LedgerLifecycleSuite) SetupSuite() {
	var err error
	s.tmpDir, err = os.MkdirTemp("", "ledger_lifecycle_test")
	s.Require().NoError(err)
	s.dbPath = filepath.Join(s.tmpDir, "ledger.db")

	s.ledger, err = ledger.Open(s.dbPath)
	s.Require().NoError(err)
	s.db = s.ledger.GetDB()
}

func (s *LedgerLifecycleSuite) TearDownSuite() {
	if s.ledger != nil {
		s.ledger.Close()
	}
	os.RemoveAll(s.tmpDir)
}

func (s *LedgerLifecycleSuite) SetupTest() {
	_, err := s.db.Exec("DELETE FROM archived_files")
	s.Require().NoError(err)
}

func (s *LedgerLifecycleSuite) TestLifecycle_HappyPath() {
	// 1. Archive a file
	rec, err := s.ledger.RecordArchive("/ws/scripts/migrate.py", "/ws/.archived_scripts/2026-08-30/scripts/migrate.py", "stale, zero references", ledger.CategoryDefinitelyObsolete)
	s.Require().NoError(err)
	s.Equal(ledger.StatusArchived, rec.Status())

	// 2. It shows up as active
	active, err := s.ledger.ListActive()
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(rec.ID, active[0].ID)

	// 3. Restore it
	restored, err := s.ledger.RecordRestore(rec.ID)
	s.Require().NoError(err)
	s.Equal(ledger.StatusRestored, restored.Status())

	// 4. No longer active, but the history row survives
	active, err = s.ledger.ListActive()
	s.Require().NoError(err)
	s.Empty(active)

	all, err := s.ledger.ListAll()
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *LedgerLifecycleSuite) TestLifecycle_ActivePathIsUnique() {
	_, err := s.ledger.RecordArchive("/ws/a.py", "/ws/arch/1/a.py", "", ledger.CategoryLikelyObsolete)
	s.Require().NoError(err)

	_, err = s.ledger.RecordArchive("/ws/a.py", "/ws/arch/2/a.py", "", ledger.CategoryLikelyObsolete)
	s.Require().ErrorIs(err, ledger.ErrDuplicateActive)
}

func (s *LedgerLifecycleSuite) TestLifecycle_ConcurrentWriters() {
	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := fmt.Sprintf("/ws/scripts/job_%d.sh", n)
			_, err := s.ledger.RecordArchive(path, "/ws/arch/"+filepath.Base(path), "", ledger.CategoryNeedsReview)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.NoError(err)
	}

	active, err := s.ledger.ListActive()
	s.Require().NoError(err)
	s.Len(active, 20)
}

func (s *LedgerLifecycleSuite) TestLifecycle_SurvivesReopen() {
	rec, err := s.ledger.RecordArchive("/ws/b.py", "/ws/arch/b.py", "", ledger.CategoryConsolidated)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Close())

	reopened, err := ledger.Open(s.dbPath)
	s.Require().NoError(err)

	found, err := reopened.Find(rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.OriginalPath, found.OriginalPath)
	s.Require().NoError(reopened.Close())

	// Reopen for the suite's shared handle
	s.ledger, err = ledger.Open(s.dbPath)
	s.Require().NoError(err)
	s.db = s.ledger.GetDB()
}

func TestLedgerLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LedgerLifecycleSuite))
}
