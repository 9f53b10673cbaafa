// workers/participant_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"trophy-award-system/models"
	"trophy-award-system/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteParticipant matches the JSON response from the profile service.
type RemoteParticipant struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	AccountStatus string    `json:"account_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetParticipantChangesResponse is the top-level structure of the profile
// service response.
type GetParticipantChangesResponse struct {
	Participants []RemoteParticipant `json:"participants"`
}

// ParticipantSyncWorker mirrors the profile service's participants into the
// local table so the sweep can enumerate active participants without a
// cross-service call.
type ParticipantSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/participants"
	serviceToken string
}

func NewParticipantSyncWorker(db *gorm.DB, profileServiceBaseURL, endpointPath, serviceToken string) *ParticipantSyncWorker {
	return &ParticipantSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      profileServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
	}
}

func (w *ParticipantSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Participant Sync Worker (profile service → participants)…")
	go w.run(ctx)
}

func (w *ParticipantSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial participant sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastSyncTime := w.getLastSyncTime()
			if err := w.syncBatch(ctx, lastSyncTime); err != nil {
				log.Printf("❌ Participant sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Participant Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt from the local table.
func (w *ParticipantSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM participants WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

// syncBatch fetches participant changes since the given time and upserts them
// locally, keyed on external_participant_id.
func (w *ParticipantSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid profile service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := utils.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("profile service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetParticipantChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode profile service response: %w", err)
	}

	if len(response.Participants) == 0 {
		return nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Participants {
		status := remote.AccountStatus
		if status == "" {
			status = models.ParticipantStatusActive
		}
		local := models.Participant{
			ExternalParticipantID: remote.ExternalID,
			Username:              remote.Username,
			Email:                 remote.Email,
			AccountStatus:         status,
			CreatedAt:             remote.CreatedAt,
			UpdatedAt:             remote.UpdatedAt,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_participant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "email", "account_status", "created_at", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert participant (external_id=%q, username=%q): %v",
				remote.ExternalID, remote.Username, err)
		} else {
			upsertCount++
		}
	}

	log.Printf("[SYNC] ✅ Synced %d participant(s) (%d upserted, %d errors)",
		len(response.Participants), upsertCount, errorCount)
	return nil
}
