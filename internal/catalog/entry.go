package catalog

// Entry is one item returned by extraction: a single video, or a playlist
// wrapper holding child entries when the target was a search or list URL.
// Fields map directly onto yt-dlp's JSON output.
type Entry struct {
	Type        string      `json:"_type"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Channel     string      `json:"channel"`
	Uploader    string      `json:"uploader"`
	Artist      string      `json:"artist"`
	Track       string      `json:"track"`
	Album       string      `json:"album"`
	Duration    float64     `json:"duration"`
	WebpageURL  string      `json:"webpage_url"`
	URL         string      `json:"url"`
	Description string      `json:"description"`
	UploadDate  string      `json:"upload_date"`
	Thumbnail   string      `json:"thumbnail"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
	Formats     []Format    `json:"formats"`
	Entries     []*Entry    `json:"entries"`
}

// Thumbnail is one preview image variant of an entry.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Format is one available encoding of an entry.
type Format struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
}

// ChannelName prefers the channel field, falling back to uploader.
func (e *Entry) ChannelName() string {
	if e.Channel != "" {
		return e.Channel
	}
	return e.Uploader
}

// DurationSeconds returns the duration rounded down to whole seconds.
func (e *Entry) DurationSeconds() int {
	return int(e.Duration)
}

// PageURL prefers the canonical webpage URL, falling back to the raw URL
// search results sometimes carry instead.
func (e *Entry) PageURL() string {
	if e.WebpageURL != "" {
		return e.WebpageURL
	}
	return e.URL
}

// HasAudio reports whether any listed format carries an audio stream.
func (f Format) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// AudioOnly reports whether the format carries audio without video.
func (f Format) AudioOnly() bool {
	return f.HasAudio() && (f.VCodec == "" || f.VCodec == "none")
}

// Bitrate returns the audio bitrate, falling back to total bitrate when
// the audio figure is absent.
func (f Format) Bitrate() float64 {
	if f.ABR > 0 {
		return f.ABR
	}
	return f.TBR
}
