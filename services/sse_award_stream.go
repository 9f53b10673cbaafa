package services

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"trophy-award-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StreamParticipantAwardsSSE streams newly granted trophies for the
// authenticated participant. The cursor starts at the latest existing award
// so clients only see grants made after they connected.
func (l *AwardLedger) StreamParticipantAwardsSSE(c *fiber.Ctx) error {
	participantID := c.Locals("user_id").(string)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		var cursor time.Time
		var latest models.AwardRecord
		if err := l.DB.
			Where("participant_id = ?", participantID).
			Order("created_at DESC").
			First(&latest).Error; err == nil {
			cursor = latest.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("SSE init error for participant %s: %v", participantID, err)
		}

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case <-ticker.C:
				var awards []models.AwardRecord
				err := l.DB.
					Where("participant_id = ? AND created_at > ?", participantID, cursor).
					Order("created_at ASC").
					Find(&awards).Error
				if err != nil {
					log.Printf("SSE query error for participant %s: %v", participantID, err)
					continue
				}
				if len(awards) == 0 {
					continue
				}

				cursor = awards[len(awards)-1].CreatedAt

				for _, a := range awards {
					payload, _ := json.Marshal(a)
					fmt.Fprintf(w, "event: trophy\ndata: %s\n\n", payload)
				}

				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-c.Context().Done():
				return
			}
		}
	})

	return nil
}
