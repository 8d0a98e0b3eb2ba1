package hostfs

// Well-known host file locations.
const (
	EtcPasswdRel = "etc/passwd"
	EtcShadowRel = "etc/shadow"
	EtcGroupRel  = "etc/group"
)

// Host-relative defaults for the ProFTPD artifacts.
const (
	ProftpdDir        = "/etc/proftpd"
	ProftpdConfigRel  = "conf.d/users.conf"
	ProftpdPasswdName = "ftpd.passwd"
)
