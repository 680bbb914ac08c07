package model

// Origin identifies who produced an event: the local device feed or a remote provider.
type Origin string

const OriginLocal Origin = "local"

// Provider represents a remote message-service integration
type Provider string

const (
	ProviderGitLab Provider = "gitlab"
	ProviderGmail  Provider = "gmail"
)

func (p Provider) Origin() Origin {
	return Origin(p)
}

func (o Origin) IsLocal() bool {
	return o == OriginLocal
}

// IsValid reports whether o is local or a known provider.
func (o Origin) IsValid() bool {
	switch o {
	case OriginLocal, ProviderGitLab.Origin(), ProviderGmail.Origin():
		return true
	}
	return false
}

var providerPackages = map[Provider][]string{
	ProviderGmail:  {"com.google.android.gm"},
	ProviderGitLab: {"com.commit451.gitlab", "com.gitlab.mobile"},
}

// ProviderForPackage maps a local app package to the remote provider that
// delivers the same messages, if any.
func ProviderForPackage(pkg string) (Provider, bool) {
	for p, pkgs := range providerPackages {
		for _, candidate := range pkgs {
			if candidate == pkg {
				return p, true
			}
		}
	}
	return "", false
}
