package publication

import (
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Settings carries the publication-wide values the billing sync depends on.
// Donation amounts are in the currency's minor unit.
type Settings struct {
	Title                   string `mapstructure:"title"`
	DonationCurrency        string `mapstructure:"donationCurrency"`
	DonationSuggestedAmount int64  `mapstructure:"donationSuggestedAmount"`
}

func DefaultSettings() Settings {
	return Settings{
		Title:                   "Inkpress",
		DonationCurrency:        "usd",
		DonationSuggestedAmount: 0,
	}
}

// Holder exposes the current publication settings and hot-reloads them when
// the settings file changes on disk.
type Holder struct {
	current atomic.Value // holds Settings
	log     *zap.Logger
}

// NewHolder reads publication.yml from the given search paths, falling back to
// defaults when no file exists.
func NewHolder(paths []string, log *zap.Logger) (*Holder, error) {
	v := viper.New()

	v.SetConfigName("publication")
	v.SetConfigType("yml")
	if len(paths) == 0 {
		paths = []string{"/etc/inkpress", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("INKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultSettings()
		v.SetDefault("publication.title", defaults.Title)
		v.SetDefault("publication.donationCurrency", defaults.DonationCurrency)
		v.SetDefault("publication.donationSuggestedAmount", defaults.DonationSuggestedAmount)
	}

	var settings Settings
	if err := v.UnmarshalKey("publication", &settings); err != nil {
		return nil, err
	}
	settings = normalize(settings)

	holder := &Holder{log: log}
	holder.current.Store(settings)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Settings
		if err := v.UnmarshalKey("publication", &updated); err != nil {
			if log != nil {
				log.Warn("publication settings reload failed", zap.String("file", e.Name), zap.Error(err))
			}
			return
		}
		holder.current.Store(normalize(updated))
		if log != nil {
			log.Info("publication settings reloaded", zap.String("file", e.Name))
		}
	})

	return holder, nil
}

// NewStaticHolder returns a holder pinned to the given settings,
// without file watching.
func NewStaticHolder(settings Settings) *Holder {
	holder := &Holder{}
	holder.current.Store(normalize(settings))
	return holder
}

// Current returns the active settings snapshot.
func (h *Holder) Current() Settings {
	if h == nil {
		return DefaultSettings()
	}
	if settings, ok := h.current.Load().(Settings); ok {
		return settings
	}
	return DefaultSettings()
}

func normalize(s Settings) Settings {
	defaults := DefaultSettings()
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = defaults.Title
	}
	// Provider currency codes are lowercase; keep ours comparable.
	s.DonationCurrency = strings.ToLower(strings.TrimSpace(s.DonationCurrency))
	if s.DonationCurrency == "" {
		s.DonationCurrency = defaults.DonationCurrency
	}
	if s.DonationSuggestedAmount < 0 {
		s.DonationSuggestedAmount = 0
	}
	return s
}
