package main

import (
	"fmt"
	"log"
	"strings"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/thread"
	"time"
)

// Backfills structured message rows for inquiries whose conversations still
// live only in the legacy concatenated columns. The reader already merges
// both schemes, so this is not required for correctness; it exists so the
// legacy columns can eventually be frozen. Safe to run repeatedly: fragments
// that already have a matching row are skipped. Also seeds last_activity_at
// on inquiries that predate the column.
func main() {
	// Initialize database
	storage.InitializeDB()

	var inquiries []models.Inquiry
	if err := storage.DB.Preload("Messages").Find(&inquiries).Error; err != nil {
		log.Fatalf("Error loading inquiries: %v", err)
	}

	totalCreated := 0
	for i := range inquiries {
		created, err := backfillInquiry(&inquiries[i])
		if err != nil {
			log.Printf("❌ BACKFILL: inquiry %d: %v", inquiries[i].ID, err)
			continue
		}
		if created > 0 {
			log.Printf("✅ BACKFILL: inquiry %d: created %d message rows", inquiries[i].ID, created)
		}
		totalCreated += created
	}

	fmt.Printf("Backfill completed: %d inquiries scanned, %d message rows created\n", len(inquiries), totalCreated)
}

func backfillInquiry(inquiry *models.Inquiry) (int, error) {
	// Same key the merge step dedupes on, so the reader sees no change.
	existing := map[string]bool{}
	for _, row := range inquiry.Messages {
		sender := row.Sender
		if sender == "" {
			sender = thread.SenderManager
			if row.SenderID == inquiry.TenantID {
				sender = thread.SenderTenant
			}
		}
		existing[sender+"-"+strings.TrimSpace(row.Message)] = true
	}

	base := inquiry.CreatedAt.UTC()
	created := 0

	write := func(frags []thread.Fragment, sender string, senderID uint) error {
		for i, frag := range frags {
			msg := thread.NormalizeFragment(frag, sender, base, inquiry.ID, i)
			if msg == nil {
				continue
			}
			if existing[msg.Sender+"-"+msg.Text] {
				continue
			}

			at, err := time.Parse(time.RFC3339Nano, msg.CreatedAt)
			if err != nil {
				at = base
			}

			row := models.InquiryMessage{
				InquiryID: inquiry.ID,
				SenderID:  senderID,
				Sender:    msg.Sender,
				Message:   msg.Text,
			}
			row.CreatedAt = at
			if err := storage.DB.Create(&row).Error; err != nil {
				return err
			}
			existing[msg.Sender+"-"+msg.Text] = true
			created++
		}
		return nil
	}

	tenantFrags := thread.ParseMarkedText(inquiry.Message, thread.NewMessageMarker)
	if err := write(tenantFrags, thread.SenderTenant, inquiry.TenantID); err != nil {
		return created, err
	}

	var managerID uint
	if inquiry.ManagerID != nil {
		managerID = *inquiry.ManagerID
	}
	managerFrags := thread.ParseMarkedText(inquiry.ResponseMessage, thread.ManagerReplyMarker)
	if err := write(managerFrags, thread.SenderManager, managerID); err != nil {
		return created, err
	}

	if inquiry.LastActivityAt.IsZero() {
		last := base
		var newest models.InquiryMessage
		rowQuery := storage.DB.Where("inquiry_id = ?", inquiry.ID).Order("created_at DESC").Limit(1).Find(&newest)
		if rowQuery.Error == nil && rowQuery.RowsAffected > 0 && newest.CreatedAt.After(last) {
			last = newest.CreatedAt
		}
		if err := storage.DB.Model(inquiry).Update("last_activity_at", last).Error; err != nil {
			return created, err
		}
	}

	return created, nil
}
