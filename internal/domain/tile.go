package domain

const (
	// DefaultIconName is the icon shown for tiles created without one.
	DefaultIconName = "Box"
	// DefaultColor is the neutral gradient used for tiles created without one.
	DefaultColor = "from-slate-600 to-slate-800"
)

// Tile is one user configured link to a self-hosted service.
//
// ID is assigned on creation and never changes afterwards.
// Protocol/Host/Port/BasePath are derived from URL every time URL is written.
type Tile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`

	Protocol string `json:"protocol"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	BasePath string `json:"basePath"`

	Description string `json:"description"`
	IconName    string `json:"iconName"`
	Color       string `json:"color"`
}

// Endpoint returns the stored coordinates, ok is false when they are missing.
func (t Tile) Endpoint() (Endpoint, bool) {
	ep := Endpoint{
		Protocol: t.Protocol,
		Host:     t.Host,
		Port:     t.Port,
		BasePath: t.BasePath,
	}
	if ep.IsZero() {
		return Endpoint{}, false
	}
	return ep, true
}

// ApplyEndpoint copies resolved coordinates onto the tile.
func (t *Tile) ApplyEndpoint(ep Endpoint) {
	t.Protocol = ep.Protocol
	t.Host = ep.Host
	t.Port = ep.Port
	t.BasePath = ep.BasePath
}

// ApplyCosmeticDefaults fills icon and color when they were left empty.
func (t *Tile) ApplyCosmeticDefaults() {
	if t.IconName == "" {
		t.IconName = DefaultIconName
	}
	if t.Color == "" {
		t.Color = DefaultColor
	}
}

// ProbeResult is a tile echoed back with its reachability verdict.
// URL shadows the tile's raw URL with the address that was actually checked.
type ProbeResult struct {
	Tile
	URL        string `json:"url"`
	Online     bool   `json:"online"`
	StatusCode *int   `json:"statusCode"`
	Error      string `json:"error,omitempty"`
	LatencyMs  int64  `json:"latencyMs,omitempty"`
}
