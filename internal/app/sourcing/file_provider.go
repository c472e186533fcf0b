package sourcing

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/infra/catalog"
)

// FileProviderConfig represents file provider settings.
type FileProviderConfig struct {
	Path       string `yaml:"path" mapstructure:"path" validate:"required"`
	Watch      bool   `yaml:"watch" mapstructure:"watch"` // Reload the catalog when the file changes
	DebounceMs int    `yaml:"debounce_ms" mapstructure:"debounce_ms" default:"500" validate:"gte=1"`
}

// FileProvider serves source items from a local catalog file.
type FileProvider struct {
	mu      sync.RWMutex
	catalog *catalog.Catalog
	config  *FileProviderConfig
	watcher *catalog.Watcher
}

// NewFileProvider creates a FileProvider, loading the catalog named in settings.
func NewFileProvider(settings map[string]any) (*FileProvider, error) {
	var config FileProviderConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("file provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("file provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	c, err := catalog.Load(config.Path)
	if err != nil {
		return nil, err
	}
	p := &FileProvider{catalog: c, config: &config}

	if config.Watch {
		debounce := time.Duration(config.DebounceMs) * time.Millisecond
		w, err := catalog.Watch(config.Path, debounce, p.setCatalog)
		if err != nil {
			return nil, err
		}
		p.watcher = w
	}
	return p, nil
}

// NewFileProviderFromCatalog wraps an already loaded catalog.
func NewFileProviderFromCatalog(c *catalog.Catalog) *FileProvider {
	return &FileProvider{catalog: c, config: &FileProviderConfig{Path: c.Path()}}
}

func (p *FileProvider) setCatalog(c *catalog.Catalog) {
	p.mu.Lock()
	p.catalog = c
	p.mu.Unlock()
	zlog.Info().Msgf("catalog reloaded: path=%s items=%d", p.config.Path, len(c.Items()))
}

func (p *FileProvider) current() *catalog.Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// Get returns the catalog entry for ref.
func (p *FileProvider) Get(ctx context.Context, ref source.Ref) (*source.Item, error) {
	item, ok := p.current().Get(ref)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s not in catalog %s", ref, p.config.Path)
	}
	return &item, nil
}

// Search matches catalog entries by name or owner.
func (p *FileProvider) Search(ctx context.Context, query string, typ source.Type, limit int) ([]source.Item, error) {
	return p.current().Search(query, typ, limit), nil
}

// Name returns the provider name.
func (p *FileProvider) Name() string {
	return "file"
}

// Close stops the catalog watcher, if any.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	return p.watcher.Close()
}
