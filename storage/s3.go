package storage

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cloudinary configuration via environment variables
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)
// The file kept its name from the S3 era; only the backend changed.

func InitializeS3() {}

type cloudinaryConfig struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

func loadCloudinaryConfig() (cloudinaryConfig, bool) {
	cfg := cloudinaryConfig{
		cloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		apiKey:    os.Getenv("CLOUDINARY_API_KEY"),
		apiSecret: os.Getenv("CLOUDINARY_API_SECRET"),
		folder:    os.Getenv("CLOUDINARY_FOLDER"),
	}
	if cfg.cloudName == "" || cfg.apiKey == "" || cfg.apiSecret == "" {
		fmt.Printf("ERROR: Missing Cloudinary env vars - cloudName: %s, apiKey set: %t\n",
			cfg.cloudName, cfg.apiKey != "")
		return cfg, false
	}
	return cfg, true
}

// signUpload produces the SHA1 signature Cloudinary expects over the signed
// form fields plus the secret.
func signUpload(publicID, timestamp, apiSecret string) string {
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, apiSecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
}

// UploadBase64File sends a data-URI or bare base64 payload to Cloudinary.
// resourceType selects the endpoint: "image" for photos, "raw" for documents,
// "auto" lets Cloudinary sniff. Returns {"url": ""} on any failure; callers
// treat an empty url as a failed upload.
func UploadBase64File(base64Src string, publicID string, resourceType string) map[string]string {
	if base64Src == "" {
		fmt.Printf("ERROR: Empty base64 payload\n")
		return map[string]string{"url": ""}
	}
	if resourceType == "" {
		resourceType = "auto"
	}

	// Strip an existing data-URI prefix; we re-add one Cloudinary accepts
	payload := base64Src
	if i := strings.Index(base64Src, ","); i != -1 {
		payload = base64Src[i+1:]
	}

	cfg, ok := loadCloudinaryConfig()
	if !ok {
		return map[string]string{"url": ""}
	}

	endpoint := "https://api.cloudinary.com/v1_1/" + cfg.cloudName + "/" + resourceType + "/upload"

	finalPublicID := publicID
	if cfg.folder != "" {
		finalPublicID = cfg.folder + "/" + publicID
	}

	form := url.Values{}
	form.Add("file", "data:application/octet-stream;base64,"+payload)
	form.Add("api_key", cfg.apiKey)
	if finalPublicID != "" {
		form.Add("public_id", finalPublicID)
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)
	form.Add("signature", signUpload(finalPublicID, timestamp, cfg.apiSecret))

	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("ERROR: Failed to create request: %v\n", err)
		return map[string]string{"url": ""}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("ERROR: HTTP request failed: %v\n", err)
		return map[string]string{"url": ""}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Printf("ERROR: Failed to read response: %v\n", err)
		return map[string]string{"url": ""}
	}

	if res.StatusCode != 200 {
		fmt.Printf("ERROR: Upload failed with status %d: %s\n", res.StatusCode, string(body))
		return map[string]string{"url": ""}
	}

	var cloudRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &cloudRes); err != nil {
		fmt.Printf("ERROR: Failed to parse JSON: %v\n", err)
		return map[string]string{"url": ""}
	}
	if cloudRes.Error.Message != "" {
		fmt.Printf("ERROR: Cloudinary error: %s\n", cloudRes.Error.Message)
		return map[string]string{"url": ""}
	}

	urlOut := cloudRes.SecureURL
	if urlOut == "" {
		urlOut = cloudRes.URL
	}
	if urlOut == "" {
		fmt.Printf("ERROR: No URL returned from Cloudinary\n")
		return map[string]string{"url": ""}
	}

	fmt.Printf("SUCCESS: Uploaded to %s\n", urlOut)
	return map[string]string{"url": urlOut}
}

// UploadBase64Image uploads avatars and unit photos.
func UploadBase64Image(base64ImageSrc string, publicID string) map[string]string {
	return UploadBase64File(base64ImageSrc, publicID, "image")
}

// DeleteFileFromCloudinary deletes an uploaded file using its delivery URL.
// URL format: https://res.cloudinary.com/{cloud_name}/{type}/upload/v{version}/{public_id}.{format}
func DeleteFileFromCloudinary(fileURL string) bool {
	if !strings.Contains(fileURL, "res.cloudinary.com") {
		fmt.Printf("ERROR: Not a Cloudinary URL: %s\n", fileURL)
		return false
	}

	parts := strings.Split(fileURL, "/")
	if len(parts) < 2 {
		fmt.Printf("ERROR: Invalid Cloudinary URL format: %s\n", fileURL)
		return false
	}

	// Get the last part and remove file extension
	lastPart := parts[len(parts)-1]
	publicID := strings.Split(lastPart, ".")[0]

	// Resource type sits right before "upload" in the path
	resourceType := "image"
	for i, part := range parts {
		if part == "upload" && i > 0 {
			resourceType = parts[i-1]
			break
		}
	}

	cfg, ok := loadCloudinaryConfig()
	if !ok {
		return false
	}

	finalPublicID := publicID
	if cfg.folder != "" {
		finalPublicID = cfg.folder + "/" + publicID
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	form := url.Values{}
	form.Add("public_id", finalPublicID)
	form.Add("api_key", cfg.apiKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", signUpload(finalPublicID, timestamp, cfg.apiSecret))

	endpoint := "https://api.cloudinary.com/v1_1/" + cfg.cloudName + "/" + resourceType + "/destroy"
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		fmt.Printf("ERROR: Failed to create deletion request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("ERROR: Deletion request failed: %v\n", err)
		return false
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Printf("ERROR: Failed to read deletion response: %v\n", err)
		return false
	}

	if res.StatusCode != 200 {
		fmt.Printf("ERROR: Deletion failed with status %d: %s\n", res.StatusCode, string(body))
		return false
	}

	var deleteRes struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &deleteRes); err != nil {
		fmt.Printf("ERROR: Failed to parse deletion response: %v\n", err)
		return false
	}
	if deleteRes.Error.Message != "" {
		fmt.Printf("ERROR: Cloudinary deletion error: %s\n", deleteRes.Error.Message)
		return false
	}
	if deleteRes.Result != "ok" {
		fmt.Printf("ERROR: Deletion result not ok: %s\n", deleteRes.Result)
		return false
	}

	fmt.Printf("SUCCESS: Deleted file from Cloudinary: %s\n", finalPublicID)
	return true
}
