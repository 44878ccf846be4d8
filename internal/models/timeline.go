package models

// TimelineEvent is one static entry of the shared-memories timeline
type TimelineEvent struct {
	Date        string `json:"date" yaml:"date"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ImageSrc    string `json:"imageSrc,omitempty" yaml:"image_src"`
}
