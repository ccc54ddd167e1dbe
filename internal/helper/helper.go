package helper

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// PrettyPrint writes v to stdout as indented JSON.
func PrettyPrint(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("could not render output")
		return
	}
	fmt.Println(string(b))
}
