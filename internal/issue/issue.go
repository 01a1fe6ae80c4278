// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ConfigNotFoundId Id = iota + 1
	ConfigParseErrorId
	ModelValidationFailedId
	HookFailedId
	ListenerFailedId
	StepFailedId
	GitRepositoryNotFoundId
	UploadFailedId
	AnnounceFailedId
	ShellNotFoundId
	InvalidVersionId
)

type (
	// Id identifies an entry of the issue catalogue.
	Id int

	// MarkdownMsg is markdown text rendered for the user.
	MarkdownMsg string

	// HttpLink is a documentation or external link.
	HttpLink string

	// Issue is a catalogue entry describing a class of failure and how to fix it.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No relkit configuration found!

relkit looks for one of these files in the base directory, in order:

1. relkit.cue
2. relkit.yml / relkit.yaml
3. relkit.toml

## Things you can try:
- Create a starter configuration:
~~~
$ relkit init
~~~
- Point relkit at an existing file:
~~~
$ relkit full-release --config path/to/relkit.cue
~~~`,
		docLinks: []HttpLink{"https://relkit.dev/docs/configuration"},
	}

	configParseErrorIssue = &Issue{
		id: ConfigParseErrorId,
		mdMsg: `
# Failed to parse the relkit configuration!

The configuration file does not match the expected schema.

## Things you can try:
- Check the syntax of the file (CUE, YAML or TOML)
- Print the configuration relkit resolved:
~~~
$ relkit config
~~~`,
		docLinks: []HttpLink{"https://relkit.dev/docs/configuration"},
	}

	modelValidationFailedIssue = &Issue{
		id: ModelValidationFailedId,
		mdMsg: `
# The project model is invalid!

relkit validates the whole model once before the workflow starts and
refuses to run when something is missing or malformed.

## Things you can try:
- Make sure ` + "`project.name`" + ` and ` + "`project.version`" + ` are set
- Make sure the version matches ` + "`project.version_pattern`" + `
- Run with ` + "`--debug`" + ` to see every field error`,
	}

	hookFailedIssue = &Issue{
		id: HookFailedId,
		mdMsg: `
# A hook failed!

Hooks run shell commands before the session and after it succeeds or fails.
A failing hook without ` + "`continue_on_error: true`" + ` aborts the release.

## Things you can try:
- Run the hook command by hand in the project directory
- Inspect ` + "`trace.log`" + ` in the output directory for the hook output
- Mark the hook as optional with ` + "`continue_on_error: true`",
	}

	listenerFailedIssue = &Issue{
		id: ListenerFailedId,
		mdMsg: `
# An extension failed while handling a workflow event!

Extensions without ` + "`continue_on_error: true`" + ` halt the workflow when they fail.

## Things you can try:
- Check the extension configuration in the ` + "`extensions`" + ` section
- Disable the extension with ` + "`enabled: false`" + ` and retry`,
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A release step failed!

The workflow stopped at the failing step. Failure hooks have run.

## Things you can try:
- Re-run with ` + "`--debug`" + ` for detailed output
- Re-run with ` + "`--dry-run`" + ` to check the configuration without side effects`,
	}

	gitRepositoryNotFoundIssue = &Issue{
		id: GitRepositoryNotFoundId,
		mdMsg: `
# No git repository found!

The tag step needs the base directory to be a git repository with at least one commit.

## Things you can try:
~~~
$ git init && git commit --allow-empty -m "initial commit"
~~~`,
	}

	uploadFailedIssue = &Issue{
		id: UploadFailedId,
		mdMsg: `
# Artifact upload failed!

## Things you can try:
- Check the bucket name, region and endpoint of the uploader
- Check the credentials (` + "`access_key_id`/`secret_key`" + ` or the AWS default credential chain)
- Set ` + "`path_style: true`" + ` for MinIO and other S3-compatible servers`,
		extLinks: []HttpLink{"https://docs.aws.amazon.com/sdk-for-go/v2/developer-guide/configure-gosdk.html"},
	}

	announceFailedIssue = &Issue{
		id: AnnounceFailedId,
		mdMsg: `
# Announcement failed!

The webhook endpoint rejected the announcement.

## Things you can try:
- Check the webhook URL
- Check the message template renders valid text`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

Native hooks need a POSIX shell (sh) on the PATH, or ` + "`cmd`" + ` on Windows.

## Things you can try:
- Use the built-in shell instead: ` + "`shell: \"virtual\"`",
	}

	invalidVersionIssue = &Issue{
		id: InvalidVersionId,
		mdMsg: `
# The project version does not match its pattern!

## Supported patterns:
- ` + "`SEMVER`" + ` (default), e.g. 1.2.3 or v1.2.3-rc.1
- ` + "`CALVER:<format>`" + `, e.g. CALVER:YYYY.MM.MICRO
- ` + "`CUSTOM`" + `, any non-blank value`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.id:        configNotFoundIssue,
		configParseErrorIssue.id:      configParseErrorIssue,
		modelValidationFailedIssue.id: modelValidationFailedIssue,
		hookFailedIssue.id:            hookFailedIssue,
		listenerFailedIssue.id:        listenerFailedIssue,
		stepFailedIssue.id:            stepFailedIssue,
		gitRepositoryNotFoundIssue.id: gitRepositoryNotFoundIssue,
		uploadFailedIssue.id:          uploadFailedIssue,
		announceFailedIssue.id:        announceFailedIssue,
		shellNotFoundIssue.id:         shellNotFoundIssue,
		invalidVersionIssue.id:        invalidVersionIssue,
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue and its links as terminal markdown.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

// Values returns every catalogue entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

// Get returns the catalogue entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
