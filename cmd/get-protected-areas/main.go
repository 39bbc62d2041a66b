// Command get-protected-areas is the Lambda function that lists protected areas.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cameronpettit/reserve-rec-api/internal/app"
)

func main() {
	a := app.Load(context.Background())
	lambda.Start(a.Handler.GetProtectedAreas)
}
