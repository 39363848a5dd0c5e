// Package protocol holds the client-facing JSON shape of a server
// configuration and its conversion to and from the persisted record.
package protocol

import (
	"encoding/base64"
	"sort"

	"github.com/google/uuid"
	"github.com/signald/serverconf/internal/models"
)

// ServerCDN is one content-delivery endpoint of a server.
type ServerCDN struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// ServerConfig is a messaging server as exchanged with clients.
// Binary values travel as standard padded base64; nil encodes as null.
type ServerConfig struct {
	// UUID is referenced when adding accounts. Generated on create if unset.
	UUID                uuid.UUID   `json:"uuid" swaggertype:"string" format:"uuid"`
	ServiceURL          string      `json:"service_url"`
	CDNURLs             []ServerCDN `json:"cdn_urls,omitempty"`
	ContactDiscoveryURL string      `json:"contact_discovery_url,omitempty"`
	KeyBackupURL        string      `json:"key_backup_url,omitempty"`
	StorageURL          string      `json:"storage_url,omitempty"`
	// ZkParams is the base64 encoded ZKGROUP_SERVER_PUBLIC_PARAMS value.
	ZkParams               *string `json:"zk_param"`
	UnidentifiedSenderRoot *string `json:"unidentified_sender_root"`
	Proxy                  *string `json:"proxy"`
	// CA is a base64 encoded trust store; its password must be "whisper".
	CA                   *string `json:"ca"`
	KeyBackupServiceName string  `json:"key_backup_service_name,omitempty"`
	KeyBackupServiceID   *string `json:"key_backup_service_id"`
	KeyBackupMrenclave   string  `json:"key_backup_mrenclave,omitempty"`
	CdsMrenclave         string  `json:"cds_mrenclave,omitempty"`
	// IasCA is a base64 encoded trust store; its password must be "whisper".
	IasCA *string `json:"ias_ca"`
}

// Constructor builds a persisted server record from decoded fields.
type Constructor interface {
	NewServer(p models.ServerParams) (*models.Server, error)
}

// ConstructorFunc adapts a function to the Constructor interface.
type ConstructorFunc func(p models.ServerParams) (*models.Server, error)

// NewServer calls f(p).
func (f ConstructorFunc) NewServer(p models.ServerParams) (*models.Server, error) {
	return f(p)
}

// DefaultConstructor builds records with models.NewServer.
var DefaultConstructor Constructor = ConstructorFunc(models.NewServer)

// FromPersisted converts a stored record into its wire form. CDN entries are
// ordered by number so the output is reproducible.
func FromPersisted(s *models.Server) ServerConfig {
	cdns := make([]ServerCDN, 0, len(s.CDNURLs))
	for number, url := range s.CDNURLs {
		cdns = append(cdns, ServerCDN{Number: number, URL: url})
	}
	sort.Slice(cdns, func(i, j int) bool { return cdns[i].Number < cdns[j].Number })

	var proxy *string
	if s.Proxy != nil {
		p := *s.Proxy
		proxy = &p
	}

	return ServerConfig{
		UUID:                   s.UUID,
		ServiceURL:             s.ServiceURL,
		CDNURLs:                cdns,
		ContactDiscoveryURL:    s.ContactDiscoveryURL,
		KeyBackupURL:           s.KeyBackupURL,
		StorageURL:             s.StorageURL,
		ZkParams:               encodeField(s.ZkParams),
		UnidentifiedSenderRoot: encodeField(s.UnidentifiedSenderRoot),
		Proxy:                  proxy,
		CA:                     encodeField(s.CA),
		KeyBackupServiceName:   s.KeyBackupServiceName,
		KeyBackupServiceID:     encodeField(s.KeyBackupServiceID),
		KeyBackupMrenclave:     s.KeyBackupMrenclave,
		CdsMrenclave:           s.CdsMrenclave,
		IasCA:                  encodeField(s.IasCA),
	}
}

// ToPersisted decodes and validates the wire fields and hands them to ctor.
// Duplicate CDN numbers resolve to the last entry in the list.
func (c ServerConfig) ToPersisted(ctor Constructor) (*models.Server, error) {
	cdns := make(models.CDNMap, len(c.CDNURLs))
	for _, cdn := range c.CDNURLs {
		cdns[cdn.Number] = cdn.URL
	}

	var d fieldDecoder
	zkParams := d.decode("zk_param", c.ZkParams)
	unidentifiedSenderRoot := d.decode("unidentified_sender_root", c.UnidentifiedSenderRoot)
	ca := d.decode("ca", c.CA)
	keyBackupServiceID := d.decode("key_backup_service_id", c.KeyBackupServiceID)
	iasCA := d.decode("ias_ca", c.IasCA)
	if d.err != nil {
		return nil, d.err
	}

	if c.Proxy != nil && *c.Proxy != "" {
		if err := ValidateProxy(*c.Proxy); err != nil {
			return nil, err
		}
	}

	server, err := ctor.NewServer(models.ServerParams{
		UUID:                   c.UUID,
		ServiceURL:             c.ServiceURL,
		CDNURLs:                cdns,
		ContactDiscoveryURL:    c.ContactDiscoveryURL,
		KeyBackupURL:           c.KeyBackupURL,
		StorageURL:             c.StorageURL,
		ZkParams:               zkParams,
		UnidentifiedSenderRoot: unidentifiedSenderRoot,
		Proxy:                  c.Proxy,
		CA:                     ca,
		KeyBackupServiceName:   c.KeyBackupServiceName,
		KeyBackupServiceID:     keyBackupServiceID,
		KeyBackupMrenclave:     c.KeyBackupMrenclave,
		CdsMrenclave:           c.CdsMrenclave,
		IasCA:                  iasCA,
	})
	if err != nil {
		return nil, &ConstructionError{Err: err}
	}
	return server, nil
}

func encodeField(b []byte) *string {
	if b == nil {
		return nil
	}
	s := base64.StdEncoding.EncodeToString(b)
	return &s
}

// fieldDecoder decodes optional base64 fields, keeping the first failure.
type fieldDecoder struct {
	err error
}

func (d *fieldDecoder) decode(field string, value *string) []byte {
	if d.err != nil || value == nil {
		return nil
	}
	b, err := base64.StdEncoding.DecodeString(*value)
	if err != nil {
		d.err = &DecodeError{Field: field, Err: err}
		return nil
	}
	return b
}
