// Command get-protected-area is the Lambda function that returns a single protected area.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cameronpettit/reserve-rec-api/internal/app"
)

func main() {
	a := app.Load(context.Background())
	lambda.Start(a.Handler.GetProtectedArea)
}
