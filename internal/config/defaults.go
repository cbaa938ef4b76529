package config

const (
	defaultOutputFile      = "~/labels/labels.csv"
	defaultStateDir        = "~/.local/share/labeller"
	defaultLogDir          = "~/.local/share/labeller/logs"
	defaultVariant         = VariantClinical
	defaultBannerSeconds   = 3
	defaultHistopathMarker = "histopath"
	defaultMaxDepth        = 32
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Supported taxonomy variants.
const (
	VariantClinical  = "clinical"
	VariantHistopath = "histopath"
)

var (
	defaultExtensions      = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}
	defaultClinicalMarkers = []string{"xc", "clinical"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputFile: defaultOutputFile,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Session: Session{
			Variant:       defaultVariant,
			BannerSeconds: defaultBannerSeconds,
			Resume:        true,
		},
		Catalog: Catalog{
			Extensions:      append([]string(nil), defaultExtensions...),
			ClinicalMarkers: append([]string(nil), defaultClinicalMarkers...),
			HistopathMarker: defaultHistopathMarker,
			MaxDepth:        defaultMaxDepth,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
