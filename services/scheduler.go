package services

import (
	"log"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the recurring housekeeping jobs. Sweeps are idempotent, so a
// missed or doubled run is harmless.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Start registers the sweeps and launches the cron loop.
func (s *Scheduler) Start() {
	// Nightly at 03:00: resolved inquiries nobody reopened get closed.
	s.cron.AddFunc("0 3 * * *", s.CloseStaleResolvedInquiries)

	// Nightly at 03:30: drop read notifications older than the retention.
	s.cron.AddFunc("30 3 * * *", s.PurgeOldNotifications)

	// Hourly: retire announcements past their expiry.
	s.cron.AddFunc("0 * * * *", s.RetireExpiredAnnouncements)

	s.cron.Start()
	log.Println("🚀 Scheduler started with", len(s.cron.Entries()), "jobs")
}

// Stop halts the cron loop, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// CloseStaleResolvedInquiries closes inquiries that stayed in resolved for 30
// days without the tenant reopening them.
func (s *Scheduler) CloseStaleResolvedInquiries() {
	cutoff := time.Now().AddDate(0, 0, -30)
	res := storage.DB.Model(&models.Inquiry{}).
		Where("status = ? AND resolved_at IS NOT NULL AND resolved_at < ?", "resolved", cutoff).
		Update("status", "closed")
	if res.Error != nil {
		log.Printf("❌ SWEEP ERROR: closing stale inquiries: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ SWEEP: closed %d stale resolved inquiries", res.RowsAffected)
		SlackServiceInstance.NotifyStaleInquiries(res.RowsAffected)
	}
}

// PurgeOldNotifications deletes read notifications older than 90 days.
func (s *Scheduler) PurgeOldNotifications() {
	cutoff := time.Now().AddDate(0, 0, -90)
	res := storage.DB.
		Where("read_at IS NOT NULL AND read_at < ?", cutoff).
		Delete(&models.Notification{})
	if res.Error != nil {
		log.Printf("❌ SWEEP ERROR: purging notifications: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ SWEEP: purged %d old notifications", res.RowsAffected)
	}
}

// RetireExpiredAnnouncements soft-deletes announcements past their expiry so
// tenant feeds stop returning them.
func (s *Scheduler) RetireExpiredAnnouncements() {
	res := storage.DB.
		Where("expires_at IS NOT NULL AND expires_at < ?", time.Now()).
		Delete(&models.Announcement{})
	if res.Error != nil {
		log.Printf("❌ SWEEP ERROR: retiring announcements: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ SWEEP: retired %d expired announcements", res.RowsAffected)
	}
}
