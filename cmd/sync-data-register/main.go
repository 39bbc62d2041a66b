// Command sync-data-register is the Lambda function that syncs protected areas from the Data Register.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/cameronpettit/reserve-rec-api/internal/app"
)

func main() {
	a := app.Load(context.Background())
	lambda.Start(a.Handler.SyncDataRegister)
}
