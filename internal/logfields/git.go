package logfields

import "go.uber.org/zap"

func PullRequest(val int) zap.Field {
	return zap.Int("github.pull_request", val)
}

func Repository(val string) zap.Field {
	return zap.String("git.repository", val)
}

func RepositoryOwner(val string) zap.Field {
	return zap.String("github.repository_owner", val)
}

func BaseBranch(val string) zap.Field {
	return zap.String("git.base_branch", val)
}

func HeadBranch(val string) zap.Field {
	return zap.String("git.head_branch", val)
}

func Branch(val string) zap.Field {
	return zap.String("git.branch", val)
}

func Author(val string) zap.Field {
	return zap.String("github.author", val)
}

func MergeStrategy(val string) zap.Field {
	return zap.String("github.merge_strategy", val)
}
