package emotion

// Avatar is the read-only view of a catalog avatar used during enrichment.
// Images holds at most one URL per emotion.
type Avatar struct {
	ID         uint
	Name       string
	PreviewURL string
	Images     map[Label]string
}

// ResolveAvatarImage picks the image shown for an avatar expressing l.
// Lookup order: exact emotion, the neutral entry, then the preview image.
// A nil result means no avatar was assigned; callers supply their own
// fallback image in that case.
func ResolveAvatarImage(a *Avatar, l Label) *string {
	if a == nil {
		return nil
	}
	if url, ok := a.Images[l]; ok && url != "" {
		return &url
	}
	if url, ok := a.Images[Neutral]; ok && url != "" {
		return &url
	}
	if a.PreviewURL != "" {
		url := a.PreviewURL
		return &url
	}
	return nil
}
