package services

import (
	"encoding/json"
	"fmt"
	"log"
	"tenantdesk-server/models"
	"tenantdesk-server/storage"
	"tenantdesk-server/utils"
	"time"
)

// NotificationService handles in-app notifications and push delivery
type NotificationService struct{}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotificationData represents the data payload for notifications
type NotificationData struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	InquiryID  string `json:"inquiryId,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	// Deep linking data
	Screen string `json:"screen"`           // Target screen to navigate to
	Params string `json:"params"`           // JSON string of navigation parameters
	Action string `json:"action,omitempty"` // Specific action to perform
}

// getUserPushTokens retrieves all push tokens for a user
func (ns *NotificationService) getUserPushTokens(userID uint) ([]string, error) {
	log.Printf("📱 TOKENS DEBUG: Getting push tokens for user %d", userID)

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		log.Printf("❌ TOKENS ERROR: User %d not found: %v", userID, err)
		return nil, fmt.Errorf("user not found: %v", err)
	}

	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		log.Printf("❌ TOKENS ERROR: User %d has notifications disabled or no tokens", userID)
		return nil, fmt.Errorf("user has notifications disabled or no tokens")
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		log.Printf("❌ TOKENS ERROR: Failed to unmarshal push tokens for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to unmarshal push tokens: %v", err)
	}

	log.Printf("✅ TOKENS SUCCESS: Found %d push tokens for user %d", len(tokens), userID)
	return tokens, nil
}

// persistNotification writes the durable inbox row. Push is best-effort on
// top of this.
func (ns *NotificationService) persistNotification(userID uint, kind, title, body string, data NotificationData) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}
	row := models.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
		Data:   payload,
	}
	if err := storage.DB.Create(&row).Error; err != nil {
		log.Printf("❌ NOTIFICATION ERROR: Failed to persist notification for user %d: %v", userID, err)
	}
}

// SendNotificationToUser stores the notification and pushes it to all of the
// user's devices
func (ns *NotificationService) SendNotificationToUser(userID uint, title, body string, data NotificationData) error {
	ns.persistNotification(userID, data.Type, title, body, data)

	tokens, err := ns.getUserPushTokens(userID)
	if err != nil {
		log.Printf("Failed to get push tokens for user %d: %v", userID, err)
		return err
	}

	dataMap := map[string]string{
		"type":      data.Type,
		"id":        data.ID,
		"inquiryId": data.InquiryID,
		"requestId": data.RequestID,
		"userId":    data.UserID,
		"screen":    data.Screen,
		"params":    data.Params,
	}

	var lastError error
	for _, token := range tokens {
		if err := utils.SendNotification(token, title, body, dataMap); err != nil {
			log.Printf("Failed to send notification to token %s: %v", token, err)
			utils.PushDeliveries.WithLabelValues("error").Inc()
			lastError = err
			continue
		}
		utils.PushDeliveries.WithLabelValues("ok").Inc()
	}

	return lastError
}

// SendInquiryReplyNotification tells the other side of an inquiry that a new
// message arrived
func (ns *NotificationService) SendInquiryReplyNotification(recipientID, inquiryID, senderID uint, senderName, unitName string) error {
	log.Printf("📱 NOTIFICATION DEBUG: Inquiry %d reply from %d to %d", inquiryID, senderID, recipientID)

	title := "💬 Nouveau Message"
	body := fmt.Sprintf("%s vous a répondu concernant %s", senderName, unitName)

	// Create navigation parameters for deep linking
	params := fmt.Sprintf(`{"inquiryId": %d, "senderId": %d}`, inquiryID, senderID)

	data := NotificationData{
		Type:      "inquiry_reply",
		ID:        fmt.Sprintf("%d", inquiryID),
		InquiryID: fmt.Sprintf("%d", inquiryID),
		UserID:    fmt.Sprintf("%d", senderID),
		Screen:    "InquiryThread",
		Params:    params,
		Action:    "view_inquiry",
	}

	err := ns.SendNotificationToUser(recipientID, title, body, data)
	if err != nil {
		log.Printf("❌ NOTIFICATION ERROR: Failed to send inquiry reply notification: %v", err)
	} else {
		log.Printf("✅ NOTIFICATION SUCCESS: Inquiry reply notification sent to user %d", recipientID)
	}
	return err
}

// SendInquiryStatusNotification tells the tenant their inquiry changed state
func (ns *NotificationService) SendInquiryStatusNotification(tenantID, inquiryID uint, unitName, status string) error {
	var title, body string

	switch status {
	case "resolved":
		title = "✅ Demande Résolue"
		body = fmt.Sprintf("Votre demande concernant %s a été résolue.", unitName)
	case "closed":
		title = "📁 Demande Clôturée"
		body = fmt.Sprintf("Votre demande concernant %s a été clôturée.", unitName)
	default:
		title = "🔄 Demande Mise à Jour"
		body = fmt.Sprintf("Le statut de votre demande concernant %s est maintenant: %s", unitName, status)
	}

	params := fmt.Sprintf(`{"inquiryId": %d, "status": "%s"}`, inquiryID, status)

	data := NotificationData{
		Type:      "inquiry_status_changed",
		ID:        fmt.Sprintf("%d", inquiryID),
		InquiryID: fmt.Sprintf("%d", inquiryID),
		Screen:    "InquiryThread",
		Params:    params,
		Action:    "view_inquiry",
	}

	return ns.SendNotificationToUser(tenantID, title, body, data)
}

// SendMaintenanceStatusNotification tells the tenant their request moved
func (ns *NotificationService) SendMaintenanceStatusNotification(tenantID, requestID uint, requestTitle, status string) error {
	var title, body string

	switch status {
	case "scheduled":
		title = "📅 Intervention Planifiée"
		body = fmt.Sprintf("Une intervention a été planifiée pour: %s", requestTitle)
	case "completed":
		title = "✅ Intervention Terminée!"
		body = fmt.Sprintf("L'intervention '%s' est terminée.", requestTitle)
	case "cancelled":
		title = "❌ Intervention Annulée"
		body = fmt.Sprintf("L'intervention '%s' a été annulée.", requestTitle)
	default:
		title = "🔧 Mise à Jour de Maintenance"
		body = fmt.Sprintf("Le statut de '%s' a été mis à jour: %s", requestTitle, status)
	}

	params := fmt.Sprintf(`{"requestId": %d, "status": "%s"}`, requestID, status)

	data := NotificationData{
		Type:      "maintenance_update",
		ID:        fmt.Sprintf("%d", requestID),
		RequestID: fmt.Sprintf("%d", requestID),
		Screen:    "MaintenanceDetail",
		Params:    params,
		Action:    "view_request",
	}

	return ns.SendNotificationToUser(tenantID, title, body, data)
}

// SendAnnouncementNotification notifies a tenant about a published notice
func (ns *NotificationService) SendAnnouncementNotification(tenantID, announcementID uint, announcementTitle string) error {
	title := "📢 Nouvelle Annonce"
	body := announcementTitle

	params := fmt.Sprintf(`{"announcementId": %d}`, announcementID)

	data := NotificationData{
		Type:   "announcement",
		ID:     fmt.Sprintf("%d", announcementID),
		Screen: "Announcements",
		Params: params,
		Action: "view_announcement",
	}

	return ns.SendNotificationToUser(tenantID, title, body, data)
}

// SendDocumentSharedNotification tells a tenant a document was shared with them
func (ns *NotificationService) SendDocumentSharedNotification(tenantID, documentID uint, documentTitle string) error {
	title := "📄 Nouveau Document"
	body := fmt.Sprintf("Un document a été partagé avec vous: %s", documentTitle)

	params := fmt.Sprintf(`{"documentId": %d}`, documentID)

	data := NotificationData{
		Type:   "document_shared",
		ID:     fmt.Sprintf("%d", documentID),
		Screen: "Documents",
		Params: params,
		Action: "view_document",
	}

	return ns.SendNotificationToUser(tenantID, title, body, data)
}

// SendWelcomeNotificationToNewUser sends welcome notification to new users
func (ns *NotificationService) SendWelcomeNotificationToNewUser(userID uint, firstName string) error {
	title := "🎉 Bienvenue sur TenantDesk!"
	body := fmt.Sprintf("Bonjour %s! Gérez votre logement et contactez votre gestionnaire en un clic.", firstName)

	data := NotificationData{
		Type:   "welcome",
		UserID: fmt.Sprintf("%d", userID),
	}

	// Wait a bit to ensure push token is registered
	time.Sleep(2 * time.Second)
	return ns.SendNotificationToUser(userID, title, body, data)
}

// Global notification service instance
var NotificationServiceInstance = NewNotificationService()
