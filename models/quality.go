package models

// QualityLabel tags a download link by the resolution it advertises.
type QualityLabel string

const (
	Quality1080p   QualityLabel = "1080p"
	Quality720p    QualityLabel = "720p"
	Quality480p    QualityLabel = "480p"
	QualityUnknown QualityLabel = "unknown"
)

// QualityLink is one quality's download link.
// MainURL is set at extraction time; RedirectURL only when resolution succeeds.
type QualityLink struct {
	MainURL     string `json:"main_url"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
