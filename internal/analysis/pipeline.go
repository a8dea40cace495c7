package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/linkstream/linkstream/internal/archive"
	"github.com/linkstream/linkstream/internal/models"
	"github.com/linkstream/linkstream/internal/storage"
)

// The CSV entries expected in a LinkedIn data export. Lookup is
// case-insensitive; LinkedIn itself ships messages.csv lowercased.
const (
	entryConnections = "Connections.csv"
	entryPositions   = "Positions.csv"
	entryProfile     = "Profile.csv"
	entrySkills      = "Skills.csv"
	entryMessages    = "messages.csv"
	entryShares      = "Shares.csv"
	entryInvitations = "Invitations.csv"
)

// Sections holds the raw text of each export CSV. Absent entries are
// empty strings.
type Sections struct {
	Connections string
	Positions   string
	Profile     string
	Skills      string
	Messages    string
	Shares      string
	Invitations string
}

// Extract pulls the expected entries out of an opened archive and
// records which were present.
func Extract(exp *archive.Export) (*Sections, models.Contains) {
	s := &Sections{
		Connections: exp.Entry(entryConnections),
		Positions:   exp.Entry(entryPositions),
		Profile:     exp.Entry(entryProfile),
		Skills:      exp.Entry(entrySkills),
		Messages:    exp.Entry(entryMessages),
		Shares:      exp.Entry(entryShares),
		Invitations: exp.Entry(entryInvitations),
	}
	c := models.Contains{
		Connections: s.Connections != "",
		Positions:   s.Positions != "",
		Profile:     s.Profile != "",
		Skills:      s.Skills != "",
		Messages:    s.Messages != "",
		Shares:      s.Shares != "",
		Invitations: s.Invitations != "",
	}
	return s, c
}

// Document concatenates the present sections into one labeled text blob
// for summarization and archival.
func (s *Sections) Document() string {
	var b strings.Builder
	write := func(label, body string) {
		if body == "" {
			return
		}
		b.WriteString("=== ")
		b.WriteString(label)
		b.WriteString(" ===\n")
		b.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	write("PROFILE", s.Profile)
	write("CONNECTIONS", s.Connections)
	write("POSITIONS", s.Positions)
	write("SKILLS", s.Skills)
	write("SHARES", s.Shares)
	write("MESSAGES", s.Messages)
	write("INVITATIONS", s.Invitations)
	return b.String()
}

// ObjectStore is the subset of the storage adapter the pipeline needs.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// Summarizer produces a free-text summary of a labeled export document.
type Summarizer interface {
	Summarize(ctx context.Context, document string) (string, error)
}

// BackupStore persists backup lifecycle transitions.
type BackupStore interface {
	UpdateBackup(ctx context.Context, backup *models.Backup) error
}

// Pipeline runs the full analysis for one uploaded export.
type Pipeline struct {
	objects    ObjectStore
	summarizer Summarizer
	store      BackupStore
	logger     zerolog.Logger
}

// NewPipeline creates an analysis pipeline.
func NewPipeline(objects ObjectStore, summarizer Summarizer, store BackupStore, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		objects:    objects,
		summarizer: summarizer,
		store:      store,
		logger:     logger.With().Str("component", "analysis").Logger(),
	}
}

// Process downloads the raw archive, extracts and aggregates its
// sections, summarizes, uploads the processed document, and moves the
// backup to completed. Any failure marks the backup failed with the
// error message and is also returned.
func (p *Pipeline) Process(ctx context.Context, backup *models.Backup) error {
	backup.MarkProcessing()
	if err := p.store.UpdateBackup(ctx, backup); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	log := p.logger.With().Str("backup_id", backup.ID.String()).Logger()

	run := func() error {
		raw, err := p.objects.Download(ctx, backup.RawObjectKey)
		if err != nil {
			return fmt.Errorf("download archive: %w", err)
		}

		exp, err := archive.Open(raw)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}

		sections, contains := Extract(exp)
		stats := ComputeStats(sections)
		insights := Insights(stats)
		doc := sections.Document()

		summary, err := p.summarizer.Summarize(ctx, doc)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		processedKey := storage.ProcessedKey(backup.OwnerID, backup.ID)
		if err := p.objects.Upload(ctx, processedKey, []byte(doc), "text/plain; charset=utf-8"); err != nil {
			return fmt.Errorf("upload processed document: %w", err)
		}

		backup.Complete(processedKey, summary, insights, &stats, contains)
		return nil
	}

	if err := run(); err != nil {
		log.Error().Err(err).Msg("analysis failed")
		backup.Fail(err.Error())
		if uerr := p.store.UpdateBackup(ctx, backup); uerr != nil {
			log.Error().Err(uerr).Msg("failed to persist failed backup")
		}
		return err
	}

	if err := p.store.UpdateBackup(ctx, backup); err != nil {
		return fmt.Errorf("persist completed backup: %w", err)
	}

	log.Info().
		Int("connections", backup.Stats.Connections).
		Int("insights", len(backup.Insights)).
		Msg("analysis completed")
	return nil
}
