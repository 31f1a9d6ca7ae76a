package data

import (
	"path"
	"strings"
)

type ContentType string

const (
	ContentTypeTextPlain          ContentType = "text/plain"
	ContentTypeTextHTML           ContentType = "text/html"
	ContentTypeTextCSS            ContentType = "text/css"
	ContentTypeTextJavaScript     ContentType = "text/javascript"
	ContentTypeTextCSV            ContentType = "text/csv"
	ContentTypeTextMarkdown       ContentType = "text/markdown"
	ContentTypeImageJPEG          ContentType = "image/jpeg"
	ContentTypeImagePNG           ContentType = "image/png"
	ContentTypeImageGIF           ContentType = "image/gif"
	ContentTypeImageWebP          ContentType = "image/webp"
	ContentTypeImageAVIF          ContentType = "image/avif"
	ContentTypeImageSVGXML        ContentType = "image/svg+xml"
	ContentTypeImageIcon          ContentType = "image/x-icon"
	ContentTypeFontWOFF           ContentType = "font/woff"
	ContentTypeFontWOFF2          ContentType = "font/woff2"
	ContentTypeFontTTF            ContentType = "font/ttf"
	ContentTypeFontOTF            ContentType = "font/otf"
	ContentTypeFontEOT            ContentType = "application/vnd.ms-fontobject"
	ContentTypeAudioMpeg          ContentType = "audio/mpeg"
	ContentTypeAudioWAV           ContentType = "audio/wav"
	ContentTypeAudioOGG           ContentType = "audio/ogg"
	ContentTypeVideoMP4           ContentType = "video/mp4"
	ContentTypeVideoWebM          ContentType = "video/webm"
	ContentTypeApplicationPDF     ContentType = "application/pdf"
	ContentTypeApplicationZip     ContentType = "application/zip"
	ContentTypeApplicationGZip    ContentType = "application/gzip"
	ContentTypeApplicationJson    ContentType = "application/json"
	ContentTypeApplicationXML     ContentType = "application/xml"
	ContentTypeApplicationWasm    ContentType = "application/wasm"
	ContentTypeApplicationStream  ContentType = "application/octet-stream"
	ContentTypeApplicationDir     ContentType = "application/x-directory"
	ContentTypeApplicationGraphQL ContentType = "application/graphql"
	ContentTypeApplicationSQL     ContentType = "application/sql"
	ContentTypeManifestJson       ContentType = "application/manifest+json"
)

// ExtensionToMIME maps file extensions to MIME types
var ExtensionToMIME = map[string]ContentType{
	".txt":         ContentTypeTextPlain,
	".html":        ContentTypeTextHTML,
	".htm":         ContentTypeTextHTML,
	".css":         ContentTypeTextCSS,
	".js":          ContentTypeTextJavaScript,
	".mjs":         ContentTypeTextJavaScript,
	".csv":         ContentTypeTextCSV,
	".md":          ContentTypeTextMarkdown,
	".jpg":         ContentTypeImageJPEG,
	".jpeg":        ContentTypeImageJPEG,
	".png":         ContentTypeImagePNG,
	".gif":         ContentTypeImageGIF,
	".webp":        ContentTypeImageWebP,
	".avif":        ContentTypeImageAVIF,
	".svg":         ContentTypeImageSVGXML,
	".ico":         ContentTypeImageIcon,
	".woff":        ContentTypeFontWOFF,
	".woff2":       ContentTypeFontWOFF2,
	".ttf":         ContentTypeFontTTF,
	".otf":         ContentTypeFontOTF,
	".eot":         ContentTypeFontEOT,
	".mp3":         ContentTypeAudioMpeg,
	".wav":         ContentTypeAudioWAV,
	".ogg":         ContentTypeAudioOGG,
	".mp4":         ContentTypeVideoMP4,
	".webm":        ContentTypeVideoWebM,
	".pdf":         ContentTypeApplicationPDF,
	".zip":         ContentTypeApplicationZip,
	".gz":          ContentTypeApplicationGZip,
	".json":        ContentTypeApplicationJson,
	".map":         ContentTypeApplicationJson,
	".xml":         ContentTypeApplicationXML,
	".wasm":        ContentTypeApplicationWasm,
	".graphql":     ContentTypeApplicationGraphQL,
	".sql":         ContentTypeApplicationSQL,
	".webmanifest": ContentTypeManifestJson,
}

// GetMIMEType returns the MIME type for the extension of p.
// Paths without extension are slug-style routes and served as HTML.
func GetMIMEType(p string) ContentType {
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return ContentTypeTextHTML
	}

	if mimeType, exists := ExtensionToMIME[ext]; exists {
		return mimeType
	}

	// Default to octet-stream for unknown types
	return ContentTypeApplicationStream
}

// IsHTMLPath reports whether p is rendered as markup, either by having
// no extension at all or by ending with .html.
func IsHTMLPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == "" || ext == ".html"
}

func (ct ContentType) String() string {
	return string(ct)
}
