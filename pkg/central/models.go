// Package central talks to the coordination service ("central server") that
// owns the list of file share paths and each user's proxied paths.
package central

// FileSharePath describes one configured share as published by the central
// server. CanonicalPath uniquely identifies it; LinuxPath is where it is
// mounted on this host.
type FileSharePath struct {
	// Zone groups shares in user interfaces
	Zone string `json:"zone" mapstructure:"zone"`

	CanonicalPath string `json:"canonical_path" mapstructure:"canonical_path"`

	// Group owning the share
	Group string `json:"group,omitempty" mapstructure:"group"`

	// Storage class (home, primary, scratch, ...)
	Storage string `json:"storage,omitempty" mapstructure:"storage"`

	// Platform mount locations, e.g. smb://server/share, \\server\share,
	// /unix/style/path
	MacPath     string `json:"mac_path,omitempty" mapstructure:"mac_path"`
	WindowsPath string `json:"windows_path,omitempty" mapstructure:"windows_path"`
	LinuxPath   string `json:"linux_path,omitempty" mapstructure:"linux_path"`
}

// ProxiedPath is a user's named share of a mount path, addressed by
// SharingKey.
type ProxiedPath struct {
	Username    string `json:"username" mapstructure:"username"`
	SharingKey  string `json:"sharing_key" mapstructure:"sharing_key"`
	SharingName string `json:"sharing_name" mapstructure:"sharing_name"`
	MountPath   string `json:"mount_path" mapstructure:"mount_path"`
}

// ProxiedPathUpdate lists the fields to change on a proxied path. Nil or
// empty fields are left as they are.
type ProxiedPathUpdate struct {
	MountPath   *string
	SharingName *string
}
