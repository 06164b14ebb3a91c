package models

import "strings"

var placeholderImages = []string{
	"https://picsum.photos/seed/springshop-1/300/300",
	"https://picsum.photos/seed/springshop-2/300/300",
	"https://picsum.photos/seed/springshop-3/300/300",
	"https://picsum.photos/seed/springshop-4/300/300",
	"https://picsum.photos/seed/springshop-5/300/300",
}

// ImageURL is the thumbnail when it is an absolute URL, otherwise the first image URL,
// otherwise a placeholder picked by PlaceholderImage.
func (p Product) ImageURL() string {
	if strings.HasPrefix(p.Thumbnail, "http") {
		return p.Thumbnail
	}
	for _, img := range p.Images {
		if strings.HasPrefix(img.URL, "http") {
			return img.URL
		}
	}
	return PlaceholderImage(p.ID)
}

// PlaceholderImage picks a stable placeholder: sum of the id's character codes modulo the list length.
func PlaceholderImage(id string) string {
	sum := 0
	for _, r := range id {
		sum += int(r)
	}
	return placeholderImages[sum%len(placeholderImages)]
}
