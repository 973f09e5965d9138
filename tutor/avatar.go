package tutor

// avatarColors are the palette keys the clients map to real colors.
var avatarColors = []string{
	"blue", "red", "green", "indigo", "orange", "purple", "teal",
}

// avatarColor deterministically picks a palette color from a name, so the
// same student always renders with the same color on every device.
func avatarColor(name string) string {
	var hash int32
	for _, r := range name {
		hash = int32(r) + ((hash << 5) - hash)
	}
	if hash < 0 {
		hash = -hash
	}
	return avatarColors[int(hash)%len(avatarColors)]
}
