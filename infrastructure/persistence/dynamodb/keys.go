package dynamodb

import (
	"fmt"
	"time"

	"recipebook/pkg/utils"
)

// Single-table layout:
//
//	recipe       PK=RECIPE#<id>  SK=METADATA             GSI1PK=RECIPES  GSI1SK=<createdAt>#<id>
//	ingredient   PK=RECIPE#<id>  SK=INGREDIENT#<pos>
//	instruction  PK=RECIPE#<id>  SK=INSTRUCTION#<seq>
//
// GSI1 lists every recipe newest first.
const (
	entityRecipe      = "RECIPE"
	entityIngredient  = "INGREDIENT"
	entityInstruction = "INSTRUCTION"

	metadataSK        = "METADATA"
	recipeListPK      = "RECIPES"
	ingredientPrefix  = "INGREDIENT#"
	instructionPrefix = "INSTRUCTION#"

	gsi1Name = "GSI1"
)

func recipePK(id string) string {
	return "RECIPE#" + id
}

func ingredientSK(position int) string {
	return fmt.Sprintf("%s%04d", ingredientPrefix, position)
}

func instructionSK(sequence int) string {
	return fmt.Sprintf("%s%04d", instructionPrefix, sequence)
}

// recipeListSK sorts lexically by creation time, ties broken by ID
func recipeListSK(createdAt time.Time, id string) string {
	return utils.FormatTimestamp(createdAt) + "#" + id
}

func connectionPK(id string) string {
	return "CONNECTION#" + id
}
