package swarm

// placeholderEmojiPNG is a 1x1 grey PNG uploaded as the unknown-emoji
// sentinel when the backup guild does not already have one. The image
// content is irrelevant; the emoji's name is what the replication core
// keys on.
var placeholderEmojiPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
	0xde, 0x00, 0x00, 0x00, 0x0c, 0x49, 0x44, 0x41,
	0x54, 0x08, 0xd7, 0x63, 0x68, 0x68, 0x68, 0x00,
	0x00, 0x01, 0x3d, 0x00, 0x7e, 0xb0, 0x52, 0x59,
	0x7b, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e,
	0x44, 0xae, 0x42, 0x60, 0x82,
}
