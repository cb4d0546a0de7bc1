package condition

// Attributes lists the attributes a condition can refer to.
var Attributes = []string{"branch", "tag", "type", "repo", "os", "dist", "language", "sender", "head_branch"}

// Vars are the build attributes a condition is evaluated against.
type Vars struct {
	Branch     string
	Tag        string
	Type       string
	Repo       string
	OS         string
	Dist       string
	Language   string
	Sender     string
	HeadBranch string
}

func knownAttribute(name string) bool {
	for _, attr := range Attributes {
		if attr == name {
			return true
		}
	}

	return false
}

func (v Vars) get(attr string) string {
	switch attr {
	case "branch":
		return v.Branch
	case "tag":
		return v.Tag
	case "type":
		return v.Type
	case "repo":
		return v.Repo
	case "os":
		return v.OS
	case "dist":
		return v.Dist
	case "language":
		return v.Language
	case "sender":
		return v.Sender
	case "head_branch":
		return v.HeadBranch
	default:
		return ""
	}
}
