// Command importleads uploads lead files to the Marketo bulk API and
// tracks each batch until it finishes, recording jobs in Postgres.
package main

func main() {
	Execute()
}
