package uploads

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Rule is the client-side file contract enforced before any byte is
// written: size cap, extension allowlist, MIME allowlist.
type Rule struct {
	MaxSize    int64
	Extensions []string
	MIMETypes  []string
}

var (
	ProfilePictureRule = Rule{
		MaxSize:    5 * 1024 * 1024,
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		MIMETypes:  []string{"image/jpeg", "image/jpg", "image/png", "image/webp"},
	}
	CertificateRule = Rule{
		MaxSize:    5 * 1024 * 1024,
		Extensions: []string{".pdf", ".jpg", ".jpeg", ".png"},
		MIMETypes:  []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"},
	}
)

const (
	profilePictureBucket = "profile-pictures"
	certificateBucket    = "certificates"
)

// Target is a resolved upload destination: where to write the file and
// the URL the profile record will reference.
type Target struct {
	Path string
	URL  string
}

type Service struct {
	Dir           string
	PublicBaseURL string
}

func NewService(dir, publicBaseURL string) *Service {
	return &Service{Dir: dir, PublicBaseURL: publicBaseURL}
}

// Validate checks a multipart file against a rule and returns a
// user-facing error when it fails.
func Validate(file *multipart.FileHeader, rule Rule) error {
	if file.Size > rule.MaxSize {
		return fmt.Errorf("file size must be less than %dMB", rule.MaxSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !contains(rule.Extensions, ext) {
		return fmt.Errorf("file extension not supported, allowed: %s", strings.Join(rule.Extensions, ", "))
	}

	if ct := file.Header.Get("Content-Type"); ct != "" && !contains(rule.MIMETypes, strings.ToLower(ct)) {
		return fmt.Errorf("file type not supported, allowed: %s", strings.Join(rule.MIMETypes, ", "))
	}

	return nil
}

// PrepareProfilePicture resolves {userId}/avatar.{ext} and clears any
// previously stored avatar so the new file is the only one.
func (s *Service) PrepareProfilePicture(userID uuid.UUID, filename string) (Target, error) {
	return s.prepare(profilePictureBucket, userID, "avatar", filepath.Ext(filename), ProfilePictureRule)
}

// PrepareCertificate resolves {userId}/{certificateType}.{ext},
// overwriting any prior certificate of the same logical role.
func (s *Service) PrepareCertificate(userID uuid.UUID, certificateType, filename string) (Target, error) {
	return s.prepare(certificateBucket, userID, certificateType, filepath.Ext(filename), CertificateRule)
}

func (s *Service) RemoveProfilePicture(userID uuid.UUID) error {
	return s.remove(profilePictureBucket, userID, "avatar", ProfilePictureRule)
}

func (s *Service) RemoveCertificate(userID uuid.UUID, certificateType string) error {
	return s.remove(certificateBucket, userID, certificateType, CertificateRule)
}

func (s *Service) prepare(bucket string, userID uuid.UUID, stem, ext string, rule Rule) (Target, error) {
	ext = strings.ToLower(ext)
	dir := filepath.Join(s.Dir, bucket, userID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Target{}, err
	}

	// drop stale files of the same logical role under other extensions
	for _, old := range rule.Extensions {
		if old == ext {
			continue
		}
		_ = os.Remove(filepath.Join(dir, stem+old))
	}

	rel := fmt.Sprintf("/uploads/%s/%s/%s%s", bucket, userID.String(), stem, ext)
	url := rel
	if base := strings.TrimRight(s.PublicBaseURL, "/"); base != "" {
		url = base + rel
	}

	return Target{
		Path: filepath.Join(dir, stem+ext),
		URL:  url,
	}, nil
}

func (s *Service) remove(bucket string, userID uuid.UUID, stem string, rule Rule) error {
	dir := filepath.Join(s.Dir, bucket, userID.String())
	for _, ext := range rule.Extensions {
		if err := os.Remove(filepath.Join(dir, stem+ext)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
