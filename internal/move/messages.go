package move

import "fmt"

// User-visible notices posted to the source issue. Templates follow the
// bot's published wording; changing them changes the user contract.
const (
	msgInvalidArguments = "⚠️ The command arguments are not valid.\n\n" +
		"**Usage:** \n```sh\n/move [to ][<owner>/]<repo>\n```"
	msgSameTarget       = "⚠️ The source and target repository must be different."
	msgMissingTarget    = "⚠️ The target repository does not exist."
	msgIneligibleTarget = "⚠️ The target repository must have issues enabled " +
		"and it must not be archived."
	msgTargetPermission = "⚠️ You must have write permission for the target repository."
)

func msgNotInstalled(appURL string) string {
	return fmt.Sprintf("⚠️ The [GitHub App](%s) must be installed for the target repository.", appURL)
}

func msgCompleted(username, targetLink string) string {
	return fmt.Sprintf("This issue was moved by @%s to %s.", username, targetLink)
}

func provenanceLine(username, sourceLink string) string {
	return fmt.Sprintf("*This issue was moved by @%s from %s.*", username, sourceLink)
}
