//go:build component
// +build component

package component

func (s *ComponentTestSuite) TestRegisterClient() {
	_, when, then := s.gherkin()

	when().
		aRegisterClientRequestIsIssued()

	then().
		theRegisterResponseContainsAValidClient().
		listClientsContainsTheClient().
		searchByNITFindsTheClient().
		anEventForTheClientCreationWillEventuallyBeProduced()
}

func (s *ComponentTestSuite) TestRegisterDuplicateClient() {
	given, when, then := s.gherkin()

	given().
		anExistingClient()

	when().
		aClientWithTheSameNITIsRegistered()

	then().
		theRequestIsRejectedWith(400, `{"error":"nit already exists"}`)
}

func (s *ComponentTestSuite) TestUpdateClient() {
	given, when, then := s.gherkin()

	given().
		anExistingClient()

	when().
		theClientGetsUpdated()

	then().
		getClientReflectsTheUpdate().
		anEventForTheClientUpdateWillEventuallyBeProduced()
}

func (s *ComponentTestSuite) TestDeleteClient() {
	given, when, then := s.gherkin()

	given().
		anExistingClient()

	when().
		aClientDeletionRequestIsIssued()

	then().
		getClientIsNotFound().
		listClientsDoesNotContainTheClient().
		anEventForTheClientDeletionWillEventuallyBeProduced()
}
