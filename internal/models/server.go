package models

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidServer is wrapped by NewServer when the supplied fields cannot
// form a usable server record.
var ErrInvalidServer = errors.New("invalid server")

// CDNMap maps a CDN number to the base URL of that content-delivery endpoint.
type CDNMap map[int]string

// Server is the persisted configuration of a messaging server endpoint.
// Binary fields hold the raw bytes; a nil slice means the value is unset.
type Server struct {
	UUID                   uuid.UUID `gorm:"type:text;primary_key"`
	ServiceURL             string    `gorm:"not null"`
	CDNURLs                CDNMap    `gorm:"serializer:json;column:cdn_urls"`
	ContactDiscoveryURL    string
	KeyBackupURL           string
	StorageURL             string
	ZkParams               []byte
	UnidentifiedSenderRoot []byte
	Proxy                  *string
	CA                     []byte `gorm:"column:ca"`
	KeyBackupServiceName   string
	KeyBackupServiceID     []byte `gorm:"column:key_backup_service_id"`
	KeyBackupMrenclave     string
	CdsMrenclave           string
	IasCA                  []byte `gorm:"column:ias_ca"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// TableName specifies the table name for Server
func (Server) TableName() string {
	return "servers"
}

// ServerParams carries every field needed to build a Server.
type ServerParams struct {
	UUID                   uuid.UUID
	ServiceURL             string
	CDNURLs                CDNMap
	ContactDiscoveryURL    string
	KeyBackupURL           string
	StorageURL             string
	ZkParams               []byte
	UnidentifiedSenderRoot []byte
	Proxy                  *string
	CA                     []byte
	KeyBackupServiceName   string
	KeyBackupServiceID     []byte
	KeyBackupMrenclave     string
	CdsMrenclave           string
	IasCA                  []byte
}

// NewServer validates the field set and assembles a Server. It does not
// touch storage. Empty binary values and an empty proxy are stored as unset.
func NewServer(p ServerParams) (*Server, error) {
	if p.UUID == uuid.Nil {
		return nil, fmt.Errorf("%w: uuid is required", ErrInvalidServer)
	}
	if p.ServiceURL == "" {
		return nil, fmt.Errorf("%w: service_url is required", ErrInvalidServer)
	}
	u, err := url.Parse(p.ServiceURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: service_url %q is not an absolute URL", ErrInvalidServer, p.ServiceURL)
	}

	cdns := make(CDNMap, len(p.CDNURLs))
	for number, cdnURL := range p.CDNURLs {
		if cdnURL == "" {
			return nil, fmt.Errorf("%w: cdn %d has an empty url", ErrInvalidServer, number)
		}
		cdns[number] = cdnURL
	}

	proxy := p.Proxy
	if proxy != nil && *proxy == "" {
		proxy = nil
	}

	return &Server{
		UUID:                   p.UUID,
		ServiceURL:             p.ServiceURL,
		CDNURLs:                cdns,
		ContactDiscoveryURL:    p.ContactDiscoveryURL,
		KeyBackupURL:           p.KeyBackupURL,
		StorageURL:             p.StorageURL,
		ZkParams:               blob(p.ZkParams),
		UnidentifiedSenderRoot: blob(p.UnidentifiedSenderRoot),
		Proxy:                  proxy,
		CA:                     blob(p.CA),
		KeyBackupServiceName:   p.KeyBackupServiceName,
		KeyBackupServiceID:     blob(p.KeyBackupServiceID),
		KeyBackupMrenclave:     p.KeyBackupMrenclave,
		CdsMrenclave:           p.CdsMrenclave,
		IasCA:                  blob(p.IasCA),
	}, nil
}

// blob maps an empty value to nil so it reads back the same from storage.
func blob(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
