package mock

const jsonUTF8 = "application/json; charset=UTF-8"

const lottoBody = `{"lotto":{"lottoId":5,"winning-numbers":[2,45,34,23,7,5,3],"winners":[{"winnerId":23,"numbers":[2,45,34,23,3,5]},{"winnerId":54,"numbers":[52,3,12,11,18,22]}]}}`

// Fixtures returns the routes of the reference JSON service.
func Fixtures() []*Route {
	contentType := HeaderList{{Name: "Content-Type", Value: jsonUTF8}}
	return []*Route{
		{
			Name:    "hello",
			Method:  "GET",
			Path:    "/hello",
			Status:  200,
			Headers: contentType,
			Body:    `{"hello":"Hello Scalatra"}`,
		},
		{
			Name:    "lotto",
			Method:  "GET",
			Path:    "/lotto",
			Status:  200,
			Headers: contentType,
			Body:    lottoBody,
		},
		{
			Name:    "greet",
			Method:  "GET",
			Path:    "/greet",
			Status:  200,
			Headers: contentType,
			Body:    `{"greeting":"Greetings {{query.firstName}} {{query.lastName}}"}`,
		},
	}
}
